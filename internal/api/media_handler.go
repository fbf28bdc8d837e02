package api

import (
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// MediaHandler holds the media service dependency.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// --- DTOs ---

type RequestUploadRequest struct {
	Kind        domain.MediaKind `json:"kind" binding:"required,oneof=image video loop"`
	FileName    string           `json:"fileName" binding:"required"`
	ContentType string           `json:"contentType" binding:"required"`
}

type RequestUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ConfirmUploadRequest struct {
	Kind        domain.MediaKind `json:"kind" binding:"required,oneof=image video loop"`
	ObjectKey   string           `json:"objectKey" binding:"required"`
	FileName    string           `json:"fileName" binding:"required"`
	ContentType string           `json:"contentType" binding:"required"`
	Size        int64            `json:"size" binding:"required,min=1"`
}

// --- Handler Methods ---

// RequestUpload issues a presigned PUT URL for one media asset.
func (h *MediaHandler) RequestUpload(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	uploadURL, objectKey, err := h.mediaService.RequestUpload(c.Request.Context(), actor, id, req.Kind, req.FileName, req.ContentType)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, RequestUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// ConfirmUpload records metadata after the client's direct PUT finished.
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	upload, err := h.mediaService.ConfirmUpload(c.Request.Context(), actor, id, req.Kind, req.ObjectKey, req.FileName, req.ContentType, req.Size)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// DownloadURL returns a presigned GET URL for one stored asset.
func (h *MediaHandler) DownloadURL(c *gin.Context) {
	uploadID, ok := parseIDParam(c, "uploadId")
	if !ok {
		return
	}

	url, err := h.mediaService.DownloadURL(c.Request.Context(), uploadID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// DeleteMedia removes the object, its metadata, and the reference.
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	uploadID, ok := parseIDParam(c, "uploadId")
	if !ok {
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.mediaService.DeleteMedia(c.Request.Context(), actor, uploadID); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
