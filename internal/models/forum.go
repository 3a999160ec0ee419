package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Discussion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID    primitive.ObjectID `bson:"event_id" json:"event_id"`
	AuthorID   string             `bson:"author_id" json:"author_id"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	IsPinned   bool               `bson:"is_pinned" json:"is_pinned"`
	ReplyCount int                `bson:"reply_count" json:"reply_count"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdateAt   time.Time          `bson:"update_at" json:"update_at"`
}

type Reply struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	DiscussionID  primitive.ObjectID  `bson:"discussion_id" json:"discussion_id"`
	ParentReplyID *primitive.ObjectID `bson:"parent_reply_id,omitempty" json:"parent_reply_id,omitempty"`
	AuthorID      string              `bson:"author_id" json:"author_id"`
	Content       string              `bson:"content" json:"content"`
	IsDelete      bool                `bson:"is_delete" json:"is_delete"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdateAt      time.Time           `bson:"update_at" json:"update_at"`
}

// ReplyWithParent is the read model for a reply: the parent reply, when one
// exists, is fetched explicitly at read time rather than lazily.
type ReplyWithParent struct {
	Reply       *Reply `json:"reply"`
	ParentReply *Reply `json:"parent_reply,omitempty"`
}

const (
	ReactionTargetDiscussion = "discussion"
	ReactionTargetReply      = "reply"
)

// Reaction is one user's reaction to a discussion or reply. At most one row
// exists per (target, user); reacting again with the same type removes it.
type Reaction struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TargetType string             `bson:"target_type" json:"target_type"`
	TargetID   primitive.ObjectID `bson:"target_id" json:"target_id"`
	EventID    primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	React      string             `bson:"react" json:"react"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// ReactionSummary is the aggregate broadcast after a toggle: per-react counts
// recomputed from the reaction rows.
type ReactionSummary struct {
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}
