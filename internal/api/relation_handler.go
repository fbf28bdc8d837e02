package api

import (
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationHandler holds the relation graph dependency.
type RelationHandler struct {
	graph service.RelationGraph
}

// NewRelationHandler creates a new RelationHandler.
func NewRelationHandler(graph service.RelationGraph) *RelationHandler {
	return &RelationHandler{graph: graph}
}

// --- DTOs ---

// SetRelationRequest links the exercise in the path to a target.
type SetRelationRequest struct {
	TargetID   string                    `json:"targetId" binding:"required"`
	Type       domain.RelationType       `json:"type" binding:"required,oneof=regression progression"`
	Provenance domain.RelationProvenance `json:"provenance" binding:"omitempty,oneof=human suggested"`
}

// RelationEdgeResponse is one outgoing edge slot.
type RelationEdgeResponse struct {
	TargetID   string                    `json:"targetId"`
	Type       domain.RelationType       `json:"type"`
	Provenance domain.RelationProvenance `json:"provenance"`
	Confirmed  bool                      `json:"confirmed"`
}

// RelationPairResponse is the pair of slots plus any difficulty warning
// produced by the last mutation.
type RelationPairResponse struct {
	Regression  *RelationEdgeResponse `json:"regression,omitempty"`
	Progression *RelationEdgeResponse `json:"progression,omitempty"`
	Warning     string                `json:"warning,omitempty"`
}

func mapEdge(edge *domain.RelationEdge) *RelationEdgeResponse {
	if edge == nil {
		return nil
	}
	return &RelationEdgeResponse{
		TargetID:   edge.TargetID.Hex(),
		Type:       edge.Type,
		Provenance: edge.Provenance,
		Confirmed:  edge.Confirmed,
	}
}

func mapPair(pair domain.RelationPair, warning string) RelationPairResponse {
	return RelationPairResponse{
		Regression:  mapEdge(pair.Regression),
		Progression: mapEdge(pair.Progression),
		Warning:     warning,
	}
}

// --- Handler Methods ---

// GetEdges returns the exercise's regression/progression slots.
func (h *RelationHandler) GetEdges(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pair, err := h.graph.GetEdges(c.Request.Context(), id)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPair(pair, ""))
}

// SetRelation installs or replaces one edge slot. The response carries
// the refreshed pair and, when the soft difficulty ordering is
// violated, a warning string; the write itself still succeeded.
func (h *RelationHandler) SetRelation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.TargetID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid target ID format.")
		return
	}
	provenance := req.Provenance
	if provenance == "" {
		provenance = domain.ProvenanceHuman
	}

	warning, err := h.graph.SetRelation(c.Request.Context(), id, targetID, req.Type, provenance)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	pair, err := h.graph.GetEdges(c.Request.Context(), id)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPair(pair, warning))
}

// RemoveRelation clears one edge slot and its inverse.
func (h *RelationHandler) RemoveRelation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	relType := domain.RelationType(c.Param("type"))
	if relType != domain.RelationRegression && relType != domain.RelationProgression {
		abortWithError(c, http.StatusBadRequest, "Relation type must be regression or progression.")
		return
	}

	if err := h.graph.RemoveRelation(c.Request.Context(), id, relType); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
