package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/api"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/config"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/notification"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository/mongo"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/search"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/service"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting verification workbench server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureRelationIndexes(ctx, appDB.Collection("relations"))
		mongo.EnsureSubmissionIndexes(ctx, appDB.Collection("global_submissions"))
		mongo.EnsureUploadIndexes(ctx, appDB.Collection("media_uploads"))
		mongo.EnsureNotificationIndexes(ctx, appDB.Collection("notifications"))
		search.EnsureCatalogIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	relationRepo := mongo.NewMongoRelationRepository(appDB)
	submissionRepo := mongo.NewMongoSubmissionRepository(appDB)
	uploadRepo := mongo.NewMongoUploadRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)

	// --- Initialize Collaborators ---
	notifier := notification.NewInboxNotifier(notificationRepo)
	catalogIndex := search.NewCatalogIndex(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)

	readiness := service.NewReadinessEngine(service.DefaultRules(service.ReadinessPolicy{
		MinPatientDescriptionLen: cfg.Review.MinPatientDescriptionLen,
		MaxMainTags:              cfg.Review.MaxMainTags,
	}))

	reviewService := service.NewReviewService(
		exerciseRepo,
		submissionRepo,
		readiness,
		notifier,
		catalogIndex,
		nil, // role checks live in the route middleware for now
		service.ReviewPolicy{MinNotesLength: cfg.Review.MinNotesLength},
	)
	relationGraph := service.NewRelationGraph(relationRepo, exerciseRepo)
	exerciseService := service.NewExerciseService(exerciseRepo, relationRepo, submissionRepo, reviewService)
	mediaService := service.NewMediaService(uploadRepo, exerciseRepo, fileStorage)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, exerciseService, relationGraph, reviewService, mediaService, notificationRepo, catalogIndex)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
