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

	"github.com/alihalilovic/easygym/internal/api"
	"github.com/alihalilovic/easygym/internal/config"
	"github.com/alihalilovic/easygym/internal/repository/mongo"
	"github.com/alihalilovic/easygym/internal/service"
	"github.com/alihalilovic/easygym/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title EasyGym API
// @version 1.0
// @description API for trainer-client coaching: invitations, diet plans, meal logging, and workouts.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting EasyGym server...")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

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

	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureInvitationIndexes(ctx, appDB.Collection("invitations"))
		mongo.EnsureHistoryIndexes(ctx, appDB.Collection("trainer_client_history"))
		mongo.EnsureDietPlanIndexes(ctx, appDB.Collection("diet_plans"))
		mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("diet_plan_assignments"))
		mongo.EnsureMealLogIndexes(ctx, appDB.Collection("meal_logs"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("workout_sessions"))
		log.Println("Index creation process completed.")
	}()

	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	log.Println("Initializing repositories...")
	txRunner := mongo.NewTxRunner(dbClient)
	userRepo := mongo.NewMongoUserRepository(appDB)
	invitationRepo := mongo.NewMongoInvitationRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)
	dietPlanRepo := mongo.NewMongoDietPlanRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	mealLogRepo := mongo.NewMongoMealLogRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)

	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, fileStorage, cfg.JWT.Secret, cfg.JWT.Expiration)
	connectionService := service.NewConnectionService(userRepo, invitationRepo, historyRepo, txRunner)
	dietPlanService := service.NewDietPlanService(dietPlanRepo, assignmentRepo, txRunner)
	assignmentService := service.NewAssignmentService(userRepo, dietPlanRepo, assignmentRepo, txRunner)
	mealLogService := service.NewMealLogService(userRepo, dietPlanRepo, assignmentRepo, mealLogRepo, txRunner)
	workoutService := service.NewWorkoutService(userRepo, exerciseRepo, workoutRepo, sessionRepo)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret,
		authService, connectionService, dietPlanService, assignmentService, mealLogService, workoutService)

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
