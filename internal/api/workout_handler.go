package api

import (
	"fmt"
	"net/http"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler serves the exercise library, workout templates, and
// client workout sessions.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MuscleGroup string `json:"muscleGroup"`
	Difficulty  string `json:"difficulty" binding:"omitempty,oneof=Novice Medium Advanced"`
	VideoURL    string `json:"videoUrl" binding:"omitempty,url"`
}

type WorkoutItemRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Sets       int    `json:"sets" binding:"required,min=1"`
	Reps       string `json:"reps"`
	Notes      string `json:"notes"`
}

type WorkoutRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Items       []WorkoutItemRequest `json:"items" binding:"dive"`
}

type LogSessionRequest struct {
	WorkoutID string `json:"workoutId" binding:"required"`
	Notes     string `json:"notes"`
}

type StreakResponse struct {
	Streak int `json:"streak"`
}

// --- Exercise Handlers ---

// CreateExercise godoc
// @Summary Create an exercise
// @Description Adds an entry to the acting trainer's exercise library.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} domain.Exercise
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Not a trainer"
// @Router /exercises [post]
func (h *WorkoutHandler) CreateExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.workoutService.CreateExercise(c.Request.Context(), actor, exerciseInputFromRequest(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exercise)
}

// ListExercises godoc
// @Summary List the trainer's exercises
// @Tags Workouts
// @Produce json
// @Success 200 {array} domain.Exercise
// @Router /exercises [get]
func (h *WorkoutHandler) ListExercises(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	exercises, err := h.workoutService.GetExercisesByTrainer(c.Request.Context(), actor, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercises)
}

// UpdateExercise godoc
// @Summary Update an exercise
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "New exercise details"
// @Success 200 {object} domain.Exercise
// @Failure 403 {object} gin.H "Not the owning trainer"
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /exercises/{id} [put]
func (h *WorkoutHandler) UpdateExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.workoutService.UpdateExercise(c.Request.Context(), actor, exerciseID, exerciseInputFromRequest(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}

// DeleteExercise godoc
// @Summary Delete an exercise
// @Description Fails with 409 while any workout still references the exercise.
// @Tags Workouts
// @Param id path string true "Exercise ID"
// @Success 204 "Exercise deleted"
// @Failure 404 {object} gin.H "Exercise not found"
// @Failure 409 {object} gin.H "Exercise is referenced by a workout"
// @Router /exercises/{id} [delete]
func (h *WorkoutHandler) DeleteExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.workoutService.DeleteExercise(c.Request.Context(), actor, exerciseID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Workout Handlers ---

// CreateWorkout godoc
// @Summary Create a workout template
// @Description Authors a template whose items reference the trainer's own exercises.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workout body WorkoutRequest true "Workout definition"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Referenced exercise not found"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	input, err := workoutInputFromRequest(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), actor, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workout)
}

// ListWorkouts godoc
// @Summary List the trainer's workout templates
// @Tags Workouts
// @Produce json
// @Success 200 {array} domain.Workout
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.GetWorkoutsByTrainer(c.Request.Context(), actor, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, workouts)
}

// UpdateWorkout godoc
// @Summary Update a workout template
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Workout ID"
// @Param workout body WorkoutRequest true "New workout definition"
// @Success 200 {object} domain.Workout
// @Failure 403 {object} gin.H "Not the owning trainer"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id} [put]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	input, err := workoutInputFromRequest(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), actor, workoutID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, workout)
}

// DeleteWorkout godoc
// @Summary Delete a workout template
// @Tags Workouts
// @Param id path string true "Workout ID"
// @Success 204 "Workout deleted"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.workoutService.DeleteWorkout(c.Request.Context(), actor, workoutID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Session Handlers ---

// LogSession godoc
// @Summary Log a workout session
// @Description Records that the client performed a workout today.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param session body LogSessionRequest true "Workout performed"
// @Success 201 {object} domain.WorkoutSession
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/sessions [post]
func (h *WorkoutHandler) LogSession(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req LogSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workoutId")
		return
	}

	session, err := h.workoutService.LogSession(c.Request.Context(), actor, actor.ID, workoutID, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListSessions godoc
// @Summary List workout sessions
// @Description A client's session history, newest first. Trainers and admins pass ?clientId=.
// @Tags Workouts
// @Produce json
// @Param clientId query string false "Client to read; defaults to the caller"
// @Success 200 {array} domain.WorkoutSession
// @Failure 403 {object} gin.H "No access to this client's data"
// @Router /workouts/sessions [get]
func (h *WorkoutHandler) ListSessions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := queryClientID(c, actor.ID)
	if !ok {
		return
	}

	sessions, err := h.workoutService.GetSessions(c.Request.Context(), actor, clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetStreak godoc
// @Summary Consecutive training day streak
// @Description Number of consecutive calendar days ending today with at least one session.
// @Tags Workouts
// @Produce json
// @Param clientId query string false "Client to read; defaults to the caller"
// @Success 200 {object} StreakResponse
// @Failure 403 {object} gin.H "No access to this client's data"
// @Router /workouts/stats/streak [get]
func (h *WorkoutHandler) GetStreak(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := queryClientID(c, actor.ID)
	if !ok {
		return
	}

	streak, err := h.workoutService.GetStreak(c.Request.Context(), actor, clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, StreakResponse{Streak: streak})
}

// --- Mapping helpers ---

func exerciseInputFromRequest(req ExerciseRequest) service.ExerciseInput {
	return service.ExerciseInput{
		Name:        req.Name,
		Description: req.Description,
		MuscleGroup: req.MuscleGroup,
		Difficulty:  req.Difficulty,
		VideoURL:    req.VideoURL,
	}
}

func workoutInputFromRequest(req WorkoutRequest) (service.WorkoutInput, error) {
	items := make([]domain.WorkoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		exerciseID, err := primitive.ObjectIDFromHex(item.ExerciseID)
		if err != nil {
			return service.WorkoutInput{}, fmt.Errorf("invalid exercise ID: %s", item.ExerciseID)
		}
		items = append(items, domain.WorkoutItem{
			ExerciseID: exerciseID,
			Sets:       item.Sets,
			Reps:       item.Reps,
			Notes:      item.Notes,
		})
	}
	return service.WorkoutInput{
		Name:        req.Name,
		Description: req.Description,
		Items:       items,
	}, nil
}
