package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// User represents a person in the system. One document per person
// regardless of role; the client-specific fields are only populated
// when Role == RoleClient.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique index
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	AvatarURL    string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Client-specific ---
	// The current trainer, nil while unconnected. InvitationAcceptedAt
	// records when the current connection started and is cleared together
	// with TrainerID when the connection is removed.
	TrainerID            *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	InvitationAcceptedAt *time.Time          `bson:"invitationAcceptedAt,omitempty" json:"invitationAcceptedAt,omitempty"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasTrainer reports whether a client user currently has an active connection.
func (u *User) HasTrainer() bool {
	return u.TrainerID != nil && *u.TrainerID != primitive.NilObjectID
}
