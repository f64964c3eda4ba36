package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
)

// handleServiceError translates service-layer errors into HTTP responses.
// Unknown errors are logged and reported as a generic 500 so internals
// never leak to clients.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrMealLogNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNoActiveDietPlan):
		abortWithError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrInvitationExists),
		errors.Is(err, service.ErrInvitationResolved),
		errors.Is(err, service.ErrMealAlreadyLogged),
		errors.Is(err, service.ErrExerciseInUse):
		abortWithError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidLogDate),
		errors.Is(err, service.ErrMealNotInPlan):
		abortWithError(c, http.StatusBadRequest, err.Error())

	default:
		log.Printf("ERROR: unhandled service error: %v", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
