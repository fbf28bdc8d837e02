package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextUserOrgKey  = "userOrg"
)

// jwtClaims mirrors the structure issued by authService.
type jwtClaims struct {
	UserID         string      `json:"uid"`
	Role           domain.Role `json:"role"`
	OrganizationID string      `json:"org"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		if !token.Valid || claims.UserID == "" || claims.Role == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRoleKey, claims.Role)
		c.Set(ContextUserOrgKey, claims.OrganizationID)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}
		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		for _, allowed := range allowedRoles {
			if userRole == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// actorFromContext assembles the service-layer actor from the claims
// set by AuthMiddleware.
func actorFromContext(c *gin.Context) (service.Actor, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return service.Actor{}, errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return service.Actor{}, errors.New("invalid user ID type in context")
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return service.Actor{}, errors.New("invalid user ID format in token")
	}

	roleRaw, _ := c.Get(ContextUserRoleKey)
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return service.Actor{}, errors.New("invalid user role type in context")
	}

	actor := service.Actor{ID: id, Role: role}
	if orgRaw, exists := c.Get(ContextUserOrgKey); exists {
		if orgStr, ok := orgRaw.(string); ok {
			if orgID, err := primitive.ObjectIDFromHex(orgStr); err == nil {
				actor.OrganizationID = orgID
			}
		}
	}
	return actor, nil
}
