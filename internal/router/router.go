package router

import (
	"context"
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/warit42/blognest/backend/internal/handlers"
	"github.com/warit42/blognest/backend/internal/middleware"
	"github.com/warit42/blognest/backend/internal/models"
	"github.com/warit42/blognest/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Like{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	mongoDB := mgClient.Database("blognest")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	blogRepo := repositories.NewMongoBlogRepository(mongoDB)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)

	if err := notificationRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create notification indexes: %v", err)
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	api := e.Group("/api/v1")

	// Notification routes: the CRUD surface stays open like the rest of the
	// public API, the feed surface requires a bearer token.
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, blogRepo, commentRepo)
	notifGroup := api.Group("/notifications")
	notificationHandler.RegisterNotificationRoutes(notifGroup)
	notifFeedGroup := notifGroup.Group("", middleware.JWTAuthMiddleware())
	notificationHandler.RegisterFeedRoutes(notifFeedGroup)
	log.Println("Notification routes configured.")

	// --- Protected routes (require JWT authentication) ---
	protected := api.Group("", middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to protected routes.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(protected)
	log.Println("User profile routes configured.")

	// Blog routes
	blogHandler := handlers.NewBlogHandler(blogRepo, userRepo)
	blogHandler.RegisterBlogRoutes(protected)
	log.Println("Blog routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, blogRepo, userRepo, notificationRepo)
	commentHandler.RegisterCommentRoutes(protected)
	log.Println("Comment routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(likeRepo, blogRepo, notificationRepo)
	likeHandler.RegisterLikeRoutes(protected)
	log.Println("Like routes configured.")

	log.Println("All routes configured.")
}
