package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Question struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID     primitive.ObjectID `bson:"event_id" json:"event_id"`
	AuthorID    string             `bson:"author_id" json:"author_id"`
	Content     string             `bson:"content" json:"content"`
	IsAnonymous bool               `bson:"is_anonymous" json:"is_anonymous"`
	IsAnswered  bool               `bson:"is_answered" json:"is_answered"`
	Answer      string             `bson:"answer,omitempty" json:"answer,omitempty"`
	AnsweredBy  string             `bson:"answered_by,omitempty" json:"answered_by,omitempty"`
	IsStarred   bool               `bson:"is_starred" json:"is_starred"`
	Upvotes     int                `bson:"upvotes" json:"upvotes"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdateAt    time.Time          `bson:"update_at" json:"update_at"`
}

// QuestionVote is one voter's upvote on a question, unique per
// (question_id, voter_id). The question's Upvotes counter is always
// recomputed from these rows, never incremented.
type QuestionVote struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	QuestionID primitive.ObjectID `bson:"question_id" json:"question_id"`
	VoterID    string             `bson:"voter_id" json:"voter_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
