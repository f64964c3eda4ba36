package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DietPlanAssignment attaches a trainer's diet plan to a client.
// A client may hold any number of assignments but at most one with
// IsActive set at any point in time; activating one deactivates the rest.
type DietPlanAssignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID  primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Denormalized for ownership queries
	IsActive   bool               `bson:"isActive" json:"isActive"`
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
