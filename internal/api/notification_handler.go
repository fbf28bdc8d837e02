package api

import (
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"github.com/gin-gonic/gin"
)

// NotificationHandler reads the caller's workflow inbox.
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// List returns the caller's notifications; ?unread=true filters.
func (h *NotificationHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notificationRepo.GetByRecipient(c.Request.Context(), actor.ID, unreadOnly)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load notifications.")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.notificationRepo.MarkRead(c.Request.Context(), id, actor.ID); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
