package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	CollectionPolls            = "polls"
	CollectionPollResponses    = "poll_responses"
	CollectionDiscussions      = "discussions"
	CollectionReplies          = "replies"
	CollectionReactions        = "forum_reactions"
	CollectionQuestions        = "questions"
	CollectionQuestionVotes    = "question_votes"
	CollectionMessages         = "direct_messages"
	CollectionMessageReactions = "message_reactions"
	CollectionRegistrations    = "registrations"
)

// Connect opens a Mongo client and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return client, nil
}

// EnsureIndexes creates the compound unique indexes the vote pipelines rely
// on. A racing duplicate insert surfaces as a duplicate-key error, which the
// services translate into an update.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		CollectionPollResponses: {
			Keys:    bson.D{{Key: "poll_id", Value: 1}, {Key: "voter_id", Value: 1}},
			Options: unique,
		},
		CollectionQuestionVotes: {
			Keys:    bson.D{{Key: "question_id", Value: 1}, {Key: "voter_id", Value: 1}},
			Options: unique,
		},
		CollectionReactions: {
			Keys:    bson.D{{Key: "target_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: unique,
		},
		CollectionMessageReactions: {
			Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: unique,
		},
		CollectionRegistrations: {
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: unique,
		},
	}

	for coll, model := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}

	return nil
}

// IsDuplicateKey reports whether err is the store's uniqueness-constraint
// violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
