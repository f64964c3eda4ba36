package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// MealLogHandler serves meal completion logging and adherence summaries.
type MealLogHandler struct {
	mealLogService service.MealLogService
}

// NewMealLogHandler creates a new MealLogHandler.
func NewMealLogHandler(mealLogService service.MealLogService) *MealLogHandler {
	return &MealLogHandler{mealLogService: mealLogService}
}

// --- Request/Response Structs ---

type LogMealRequest struct {
	MealID string `json:"mealId" binding:"required"`
	Date   string `json:"date"` // YYYY-MM-DD; defaults to today
}

type MealLogResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	MealID      string    `json:"mealId"`
	LogDate     time.Time `json:"logDate"`
	CompletedAt time.Time `json:"completedAt"`
}

// --- Handler Methods ---

// LogMeal godoc
// @Summary Log a meal as completed
// @Description Records completion of a meal scheduled for today on the client's active plan. Same-day only.
// @Tags MealLog
// @Accept json
// @Produce json
// @Param log body LogMealRequest true "Meal to log"
// @Success 201 {object} MealLogResponse
// @Failure 400 {object} gin.H "Date is not today or meal not scheduled today"
// @Failure 404 {object} gin.H "No active diet plan"
// @Failure 409 {object} gin.H "Meal already logged today"
// @Router /meallog [post]
func (h *MealLogHandler) LogMeal(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	mealID, err := primitive.ObjectIDFromHex(req.MealID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid mealId")
		return
	}
	logDate, ok := parseDateOrToday(c, req.Date)
	if !ok {
		return
	}

	log, err := h.mealLogService.LogMeal(c.Request.Context(), actor, actor.ID, mealID, logDate)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapMealLogToResponse(log))
}

// UnlogMeal godoc
// @Summary Undo a meal log
// @Description Soft-deletes the log; re-logging the same meal the same day restores it.
// @Tags MealLog
// @Produce json
// @Param mealId query string true "Meal ID"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 204 "Log removed"
// @Failure 404 {object} gin.H "No live log for that meal and date"
// @Router /meallog [delete]
func (h *MealLogHandler) UnlogMeal(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	mealID, err := primitive.ObjectIDFromHex(c.Query("mealId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid mealId")
		return
	}
	logDate, ok := parseDateOrToday(c, c.Query("date"))
	if !ok {
		return
	}

	if err := h.mealLogService.UnlogMeal(c.Request.Context(), actor, actor.ID, mealID, logDate); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDailyProgress godoc
// @Summary Daily adherence summary
// @Description Per-meal completion and adherence percentage for one date. Trainers and admins pass ?clientId= to read a client's summary.
// @Tags MealLog
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param clientId query string false "Client to read; defaults to the caller"
// @Success 200 {object} service.DailyProgress
// @Failure 403 {object} gin.H "No access to this client's data"
// @Router /meallog/daily [get]
func (h *MealLogHandler) GetDailyProgress(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := queryClientID(c, actor.ID)
	if !ok {
		return
	}
	date, ok := parseDateOrToday(c, c.Query("date"))
	if !ok {
		return
	}

	progress, err := h.mealLogService.GetDailyProgress(c.Request.Context(), actor, clientID, date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetWeeklyProgress godoc
// @Summary Weekly adherence summary
// @Description Seven daily summaries starting at the given date, with aggregate adherence.
// @Tags MealLog
// @Produce json
// @Param start query string false "YYYY-MM-DD, defaults to today"
// @Param clientId query string false "Client to read; defaults to the caller"
// @Success 200 {object} service.WeeklyProgress
// @Failure 403 {object} gin.H "No access to this client's data"
// @Router /meallog/weekly [get]
func (h *MealLogHandler) GetWeeklyProgress(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := queryClientID(c, actor.ID)
	if !ok {
		return
	}
	start, ok := parseDateOrToday(c, c.Query("start"))
	if !ok {
		return
	}

	progress, err := h.mealLogService.GetWeeklyProgress(c.Request.Context(), actor, clientID, start)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// --- Helpers ---

// parseDateOrToday parses a YYYY-MM-DD value, defaulting to the current
// UTC date when empty. Aborts with 400 on malformed input.
func parseDateOrToday(c *gin.Context, value string) (time.Time, bool) {
	if value == "" {
		return time.Now().UTC(), true
	}
	date, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid date %q: expected YYYY-MM-DD", value))
		return time.Time{}, false
	}
	return date, true
}

// queryClientID reads the optional clientId query parameter, falling back
// to the caller's own ID.
func queryClientID(c *gin.Context, fallback primitive.ObjectID) (primitive.ObjectID, bool) {
	value := c.Query("clientId")
	if value == "" {
		return fallback, true
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId")
		return primitive.NilObjectID, false
	}
	return id, true
}

func mapMealLogToResponse(log *domain.MealLog) MealLogResponse {
	if log == nil {
		return MealLogResponse{}
	}
	return MealLogResponse{
		ID:          log.ID.Hex(),
		ClientID:    log.ClientID.Hex(),
		MealID:      log.MealID.Hex(),
		LogDate:     log.LogDate,
		CompletedAt: log.CompletedAt,
	}
}
