package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Handlers map these onto HTTP
// status codes: not-found family -> 404, ErrForbidden -> 403,
// ErrValidation -> 400, conflict family -> 409.
var (
	// Not found family
	ErrUserNotFound       = errors.New("user not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrPlanNotFound       = errors.New("diet plan not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrMealLogNotFound    = errors.New("meal log not found")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrSessionNotFound    = errors.New("workout session not found")

	// Authorization. Always surfaced, never a silent empty result,
	// so authorization failures stay observable and testable.
	ErrForbidden = errors.New("forbidden")

	// Validation. Wrap with validationError() to carry a message.
	ErrValidation = errors.New("validation failed")

	// Conflict family: the operation would violate a uniqueness or
	// state invariant. Distinct from plain validation so callers can
	// special-case them (e.g., offer "unlog then relog").
	ErrInvitationExists   = errors.New("a pending invitation already exists for this pair")
	ErrInvitationResolved = errors.New("invitation has already been resolved")
	ErrMealAlreadyLogged  = errors.New("meal is already logged for this date")
	ErrExerciseInUse      = errors.New("exercise is referenced by a workout")

	// Daily log tracker specifics
	ErrInvalidLogDate   = errors.New("meals can only be logged for the current date")
	ErrNoActiveDietPlan = errors.New("client has no active diet plan")
	ErrMealNotInPlan    = errors.New("meal is not scheduled on this day of the plan")

	// Authentication. Kept uniform so login failures never reveal
	// which part of the check failed.
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// validationError wraps ErrValidation with a human-readable message that
// handlers pass through to the caller.
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
