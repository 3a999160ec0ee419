package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DirectMessage is a two-party chat message. ChatKey is derived from the
// sorted pair of participant ids so both sides converge on the same thread.
type DirectMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ChatKey     string             `bson:"chat_key" json:"chat_key"`
	SenderID    string             `bson:"sender_id" json:"sender_id"`
	RecipientID string             `bson:"recipient_id" json:"recipient_id"`
	Content     string             `bson:"content" json:"content"`
	IsEdit      bool               `bson:"is_edit" json:"is_edit"`
	IsDelete    bool               `bson:"is_delete" json:"is_delete"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdateAt    time.Time          `bson:"update_at" json:"update_at"`
}

// MessageReaction is one user's reaction to a message, unique per
// (message_id, user_id). Re-reacting with the same type removes it.
type MessageReaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MessageID primitive.ObjectID `bson:"message_id" json:"message_id"`
	ChatKey   string             `bson:"chat_key" json:"chat_key"`
	UserID    string             `bson:"user_id" json:"user_id"`
	React     string             `bson:"react" json:"react"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// UserOnline reports a chat partner's connectivity. LastOnline is zero when
// the user was never seen or presence persistence is disabled.
type UserOnline struct {
	UserID     string    `json:"user_id"`
	IsOnline   bool      `json:"is_online"`
	LastOnline time.Time `json:"last_online,omitempty"`
}
