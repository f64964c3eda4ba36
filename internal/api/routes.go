package api

import (
	"net/http"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler into the /api/v1 route tree.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	connectionService service.ConnectionService,
	dietPlanService service.DietPlanService,
	assignmentService service.AssignmentService,
	mealLogService service.MealLogService,
	workoutService service.WorkoutService,
) {
	authHandler := NewAuthHandler(authService)
	connectionHandler := NewConnectionHandler(connectionService)
	dietPlanHandler := NewDietPlanHandler(dietPlanService, assignmentService)
	mealLogHandler := NewMealLogHandler(mealLogService)
	workoutHandler := NewWorkoutHandler(workoutService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		profileGroup := protected.Group("/profile")
		{
			profileGroup.GET("", authHandler.GetProfile)
			profileGroup.PUT("/password", authHandler.ChangePassword)
			profileGroup.POST("/avatar/upload-url", authHandler.RequestAvatarUpload)
			profileGroup.POST("/avatar/confirm", authHandler.ConfirmAvatarUpload)
		}

		invitationGroup := protected.Group("/invitations")
		{
			invitationGroup.POST("", connectionHandler.CreateInvitation)
			invitationGroup.GET("", connectionHandler.ListInvitations)
			invitationGroup.PUT("/:id", connectionHandler.ResolveInvitation)
		}

		connectionGroup := protected.Group("/connections")
		{
			connectionGroup.DELETE("", connectionHandler.RemoveConnection)
			connectionGroup.GET("/history", connectionHandler.GetHistory)
		}

		protected.GET("/trainer/clients",
			RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin), connectionHandler.ListClients)

		dietPlanGroup := protected.Group("/dietplans")
		{
			trainerOnly := RoleMiddleware(domain.RoleTrainer)

			dietPlanGroup.POST("", trainerOnly, dietPlanHandler.CreateDietPlan)
			dietPlanGroup.GET("", trainerOnly, dietPlanHandler.ListDietPlans)
			dietPlanGroup.GET("/:id", dietPlanHandler.GetDietPlan)
			dietPlanGroup.PUT("/:id", trainerOnly, dietPlanHandler.UpdateDietPlan)
			dietPlanGroup.DELETE("/:id", trainerOnly, dietPlanHandler.DeleteDietPlan)

			dietPlanGroup.POST("/:id/assign", trainerOnly, dietPlanHandler.AssignPlan)
			dietPlanGroup.POST("/:id/unassign", trainerOnly, dietPlanHandler.UnassignPlan)
			dietPlanGroup.PUT("/:id/active", trainerOnly, dietPlanHandler.SetAssignmentActive)
		}

		clientGroup := protected.Group("/clients/:clientId")
		{
			clientGroup.GET("/assignments", dietPlanHandler.ListClientAssignments)
			clientGroup.GET("/assignments/active", dietPlanHandler.GetActiveAssignment)
		}

		mealLogGroup := protected.Group("/meallog")
		{
			clientOnly := RoleMiddleware(domain.RoleClient)

			mealLogGroup.POST("", clientOnly, mealLogHandler.LogMeal)
			mealLogGroup.DELETE("", clientOnly, mealLogHandler.UnlogMeal)
			mealLogGroup.GET("/daily", mealLogHandler.GetDailyProgress)
			mealLogGroup.GET("/weekly", mealLogHandler.GetWeeklyProgress)
		}

		exerciseGroup := protected.Group("/exercises")
		exerciseGroup.Use(RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin))
		{
			exerciseGroup.POST("", workoutHandler.CreateExercise)
			exerciseGroup.GET("", workoutHandler.ListExercises)
			exerciseGroup.PUT("/:id", workoutHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", workoutHandler.DeleteExercise)
		}

		workoutGroup := protected.Group("/workouts")
		{
			trainerOnly := RoleMiddleware(domain.RoleTrainer)

			workoutGroup.POST("", trainerOnly, workoutHandler.CreateWorkout)
			workoutGroup.GET("", trainerOnly, workoutHandler.ListWorkouts)
			workoutGroup.PUT("/:id", trainerOnly, workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", trainerOnly, workoutHandler.DeleteWorkout)

			workoutGroup.POST("/sessions", RoleMiddleware(domain.RoleClient), workoutHandler.LogSession)
			workoutGroup.GET("/sessions", workoutHandler.ListSessions)
			workoutGroup.GET("/stats/streak", workoutHandler.GetStreak)
		}
	}
}
