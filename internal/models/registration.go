package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration ties a user to an event, unique per (event_id, user_id).
// Membership checks for event-scoped features go through these rows.
type Registration struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID   primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
