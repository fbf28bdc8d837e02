package api

import (
	"net/http"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/search"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler under /api/v1.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	relationGraph service.RelationGraph,
	reviewService service.ReviewService,
	mediaService service.MediaService,
	notificationRepo repository.NotificationRepository,
	catalogIndex *search.CatalogIndex,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	relationHandler := NewRelationHandler(relationGraph)
	reviewHandler := NewReviewHandler(reviewService)
	mediaHandler := NewMediaHandler(mediaService)
	notificationHandler := NewNotificationHandler(notificationRepo)
	catalogHandler := NewCatalogHandler(catalogIndex)

	authMiddleware := AuthMiddleware(jwtSecret)
	reviewerOnly := RoleMiddleware(domain.RoleReviewer)
	anyRole := RoleMiddleware(domain.RoleAuthor, domain.RoleReviewer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			actor, err := actorFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": actor.ID.Hex(), "role": actor.Role})
		})

		// --- Exercise Routes ---
		exerciseGroup := protected.Group("/exercises")
		exerciseGroup.Use(anyRole)
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleAuthor), exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.ListOrganizationExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			// Field-level commits; the edit guard inside the service
			// decides per status and role, not the router.
			exerciseGroup.PATCH("/:id/fields", exerciseHandler.CommitField)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteDraft)
			exerciseGroup.POST("/:id/submit-global", RoleMiddleware(domain.RoleAuthor), exerciseHandler.SubmitForGlobal)

			// --- Relation ladder ---
			exerciseGroup.GET("/:id/relations", relationHandler.GetEdges)
			exerciseGroup.PUT("/:id/relations", relationHandler.SetRelation)
			exerciseGroup.DELETE("/:id/relations/:type", relationHandler.RemoveRelation)

			// --- Media ---
			exerciseGroup.POST("/:id/media/upload-url", mediaHandler.RequestUpload)
			exerciseGroup.POST("/:id/media", mediaHandler.ConfirmUpload)

			// --- Readiness report (workbench guidance panel) ---
			exerciseGroup.GET("/:id/readiness", reviewHandler.Readiness)
		}

		mediaGroup := protected.Group("/media")
		mediaGroup.Use(anyRole)
		{
			mediaGroup.GET("/:uploadId/download-url", mediaHandler.DownloadURL)
			mediaGroup.DELETE("/:uploadId", mediaHandler.DeleteMedia)
		}

		// --- Workflow transitions ---
		workflowGroup := protected.Group("/exercises/:id/workflow")
		{
			workflowGroup.POST("/submit", RoleMiddleware(domain.RoleAuthor), reviewHandler.Submit)
			workflowGroup.POST("/resubmit", RoleMiddleware(domain.RoleAuthor), reviewHandler.Resubmit)
			workflowGroup.POST("/approve", reviewerOnly, reviewHandler.Approve)
			workflowGroup.POST("/request-changes", reviewerOnly, reviewHandler.RequestChanges)
			workflowGroup.POST("/reject", reviewerOnly, reviewHandler.Reject)
			workflowGroup.POST("/unpublish", reviewerOnly, reviewHandler.Unpublish)
		}

		// --- Review queue ---
		protected.GET("/review/queue", reviewerOnly, exerciseHandler.GetReviewQueue)

		// --- Shared catalog ---
		protected.GET("/catalog/search", anyRole, catalogHandler.Search)

		// --- Notifications ---
		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", notificationHandler.List)
			notificationGroup.POST("/:id/read", notificationHandler.MarkRead)
		}
	}
}
