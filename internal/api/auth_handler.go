package api

import (
	"errors"
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler holds the auth service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- DTOs ---

type RegisterRequest struct {
	Name           string      `json:"name" binding:"required"`
	Email          string      `json:"email" binding:"required,email"`
	Password       string      `json:"password" binding:"required,min=8"`
	Role           domain.Role `json:"role" binding:"required"`
	OrganizationID string      `json:"organizationId" binding:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	OrganizationID string      `json:"organizationId,omitempty"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func mapUserToResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.OrganizationID != primitive.NilObjectID {
		resp.OrganizationID = u.OrganizationID.Hex()
	}
	return resp
}

// --- Handler Methods ---

// Register creates a new author or reviewer account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	orgID := primitive.NilObjectID
	if req.OrganizationID != "" {
		var err error
		orgID, err = primitive.ObjectIDFromHex(req.OrganizationID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid organization ID format.")
			return
		}
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role, orgID)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to register user.")
		}
		return
	}

	c.JSON(http.StatusCreated, mapUserToResponse(user))
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Login failed.")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: mapUserToResponse(user)})
}
