package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutItem is one exercise slot inside a workout, with its prescribed
// volume. Items reference exercises from the owning trainer's library.
type WorkoutItem struct {
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       string             `bson:"reps,omitempty" json:"reps,omitempty"` // e.g., "8-12", "AMRAP"
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout is a trainer-authored workout template.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Items       []WorkoutItem      `bson:"items" json:"items"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutSession records that a client performed a workout on a given
// calendar date. Sessions back the streak statistic: the number of
// consecutive days ending today on which the client trained.
type WorkoutSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	WorkoutID   primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	SessionDate time.Time          `bson:"sessionDate" json:"sessionDate"` // Normalized to UTC midnight
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
}
