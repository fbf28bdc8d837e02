package api

import (
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewHandler holds the review service dependency.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// --- DTOs ---

// DispatchRequest carries the reviewer's input for a transition.
type DispatchRequest struct {
	Notes  string            `json:"notes"`
	Reason domain.ReasonCode `json:"reason" binding:"omitempty,oneof=duplicate unsafe low_quality out_of_scope policy_breach"`
}

// DispatchResponse returns the record in its new state together with
// the events now legal from it, so the workbench can re-enable buttons
// without a second round trip.
type DispatchResponse struct {
	Exercise      ExerciseResponse      `json:"exercise"`
	AllowedEvents []service.ReviewEvent `json:"allowedEvents"`
}

// ReadinessResponse is the rule report plus the display-only score.
type ReadinessResponse struct {
	Results []domain.ValidationResult `json:"results"`
	Score   int                       `json:"score"`
}

// --- Handler Methods ---

// dispatch runs one workflow event against the exercise in the path.
func (h *ReviewHandler) dispatch(event service.ReviewEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req DispatchRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
				return
			}
		}

		actor, err := actorFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
			return
		}

		payload := service.DispatchPayload{Notes: req.Notes, Reason: req.Reason}
		ex, err := h.reviewService.Dispatch(c.Request.Context(), event, id, actor, payload)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, DispatchResponse{
			Exercise:      MapExerciseToResponse(ex),
			AllowedEvents: h.reviewService.AllowedEvents(ex.Status),
		})
	}
}

func (h *ReviewHandler) Submit(c *gin.Context)         { h.dispatch(service.EventSubmit)(c) }
func (h *ReviewHandler) Approve(c *gin.Context)        { h.dispatch(service.EventApprove)(c) }
func (h *ReviewHandler) RequestChanges(c *gin.Context) { h.dispatch(service.EventRequestChanges)(c) }
func (h *ReviewHandler) Reject(c *gin.Context)         { h.dispatch(service.EventReject)(c) }
func (h *ReviewHandler) Resubmit(c *gin.Context)       { h.dispatch(service.EventResubmit)(c) }
func (h *ReviewHandler) Unpublish(c *gin.Context)      { h.dispatch(service.EventUnpublish)(c) }

// Readiness returns the publish-readiness report for the workbench's
// guidance panel.
func (h *ReviewHandler) Readiness(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	results, score, err := h.reviewService.Readiness(c.Request.Context(), id)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReadinessResponse{Results: results, Score: score})
}
