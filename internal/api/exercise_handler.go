package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs ---

// CreateExerciseRequest defines the expected JSON for creating a draft.
type CreateExerciseRequest struct {
	Name                 string                `json:"name" binding:"required"`
	PatientDescription   string                `json:"patientDescription"`
	ClinicianDescription string                `json:"clinicianDescription"`
	Type                 domain.ExerciseType   `json:"type" binding:"omitempty,oneof=repetitions timed isometric_hold"`
	BodySide             domain.BodySide       `json:"bodySide" binding:"omitempty,oneof=left right both none"`
	Difficulty           domain.Difficulty     `json:"difficulty" binding:"omitempty,oneof=beginner easy medium hard expert"`
	Params               domain.TrainingParams `json:"params"`
	MainTags             []string              `json:"mainTags"`
	AdditionalTags       []string              `json:"additionalTags"`
	Scope                domain.ExerciseScope  `json:"scope" binding:"omitempty,oneof=personal organization"`
}

// CommitFieldRequest carries one optimistic field commit.
type CommitFieldRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID                   string                `json:"id"`
	OrganizationID       string                `json:"organizationId"`
	AuthorID             string                `json:"authorId"`
	Name                 string                `json:"name"`
	PatientDescription   string                `json:"patientDescription,omitempty"`
	ClinicianDescription string                `json:"clinicianDescription,omitempty"`
	Type                 domain.ExerciseType   `json:"type,omitempty"`
	BodySide             domain.BodySide       `json:"bodySide,omitempty"`
	Params               domain.TrainingParams `json:"params"`
	MainTags             []string              `json:"mainTags,omitempty"`
	AdditionalTags       []string              `json:"additionalTags,omitempty"`
	Media                domain.ExerciseMedia  `json:"media"`
	Difficulty           domain.Difficulty     `json:"difficulty,omitempty"`
	Status               domain.ExerciseStatus `json:"status"`
	Scope                domain.ExerciseScope  `json:"scope"`
	ReviewNotes          string                `json:"reviewNotes,omitempty"`
	GlobalSubmissionID   string                `json:"globalSubmissionId,omitempty"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	resp := ExerciseResponse{
		ID:                   ex.ID.Hex(),
		OrganizationID:       ex.OrganizationID.Hex(),
		AuthorID:             ex.AuthorID.Hex(),
		Name:                 ex.Name,
		PatientDescription:   ex.PatientDescription,
		ClinicianDescription: ex.ClinicianDescription,
		Type:                 ex.Type,
		BodySide:             ex.BodySide,
		Params:               ex.Params,
		MainTags:             ex.MainTags,
		AdditionalTags:       ex.AdditionalTags,
		Media:                ex.Media,
		Difficulty:           ex.Difficulty,
		Status:               ex.Status,
		Scope:                ex.Scope,
		ReviewNotes:          ex.ReviewNotes,
		CreatedAt:            ex.CreatedAt,
		UpdatedAt:            ex.UpdatedAt,
	}
	if ex.GlobalSubmissionID != nil {
		resp.GlobalSubmissionID = ex.GlobalSubmissionID.Hex()
	}
	return resp
}

// MapExercisesToResponse converts a slice of domain.Exercise to DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// mapServiceError translates service-layer errors into HTTP replies.
// Guard violations are loud 422s: the caller dispatched an event or
// edit that is illegal in the record's current state.
func mapServiceError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrExerciseNotFound), errors.Is(err, service.ErrMediaNotFound),
		errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseAccessDenied), errors.Is(err, service.ErrExerciseLocked):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrConflict):
		abortWithError(c, http.StatusConflict, "The record changed underneath you; refetch and re-evaluate.")
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "publish readiness failed",
			"failures": ve.Results,
		})
	case service.IsGuardViolation(err):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNotesTooShort),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrNoChangesSinceReview),
		errors.Is(err, service.ErrSelfRelation),
		errors.Is(err, service.ErrContradictoryRelation),
		errors.Is(err, service.ErrUnknownField):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal error.")
	}
}

func parseIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// CreateExercise creates a new draft for the author's organization.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	ex := &domain.Exercise{
		Name:                 req.Name,
		PatientDescription:   req.PatientDescription,
		ClinicianDescription: req.ClinicianDescription,
		Type:                 req.Type,
		BodySide:             req.BodySide,
		Difficulty:           req.Difficulty,
		Params:               req.Params,
		MainTags:             req.MainTags,
		AdditionalTags:       req.AdditionalTags,
		Scope:                req.Scope,
	}

	created, err := h.exerciseService.CreateDraft(c.Request.Context(), actor, ex)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(created))
}

// GetExercise returns a single exercise.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ex, err := h.exerciseService.GetExerciseByID(c.Request.Context(), id)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(ex))
}

// ListOrganizationExercises returns the caller's organization's
// exercises, optionally filtered with ?status=.
func (h *ExerciseHandler) ListOrganizationExercises(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	status := domain.ExerciseStatus(c.Query("status"))
	exercises, err := h.exerciseService.GetByOrganization(c.Request.Context(), actor.OrganizationID, status)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetReviewQueue lists every exercise waiting on a reviewer decision.
func (h *ExerciseHandler) GetReviewQueue(c *gin.Context) {
	exercises, err := h.exerciseService.GetReviewQueue(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// CommitField applies one optimistic field commit. A rejected commit
// rolls back on the client; the server simply refuses the write.
func (h *ExerciseHandler) CommitField(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CommitFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.exerciseService.CommitField(c.Request.Context(), actor, id, req.Field, req.Value); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDraft removes a draft exercise and its relation edges.
func (h *ExerciseHandler) DeleteDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.exerciseService.DeleteDraft(c.Request.Context(), actor, id); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitForGlobal opens a promotion request for the shared catalog.
func (h *ExerciseHandler) SubmitForGlobal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	sub, err := h.exerciseService.SubmitForGlobal(c.Request.Context(), actor, id)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}
