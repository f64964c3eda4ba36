package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealLog records that a client completed a specific meal on a specific
// calendar date, tied to the assignment that was active at logging time.
// Logs are soft-deleted so that unlogging is reversible: re-logging the
// same (client, meal, date) restores the existing row with a fresh
// CompletedAt instead of inserting a duplicate. At most one non-deleted
// log exists per (ClientID, MealID, LogDate).
type MealLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"`
	MealID       primitive.ObjectID `bson:"mealId" json:"mealId"`
	AssignmentID primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	LogDate      time.Time          `bson:"logDate" json:"logDate"` // Normalized to UTC midnight
	CompletedAt  time.Time          `bson:"completedAt" json:"completedAt"`
	IsDeleted    bool               `bson:"isDeleted" json:"-"`
	DeletedAt    *time.Time         `bson:"deletedAt,omitempty" json:"-"`
}

// DateOnly normalizes a timestamp to UTC midnight so meal log dates
// compare by calendar day regardless of the wall-clock time they carry.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
