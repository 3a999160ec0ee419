package repository

import (
	"context"
	"errors"
	"time"

	"engage-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionRepository interface {
	InsertQuestion(ctx context.Context, question *models.Question) (primitive.ObjectID, error)
	GetQuestionByID(ctx context.Context, questionID primitive.ObjectID) (*models.Question, error)
	GetQuestionsByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*models.Question, error)
	SetUpvotes(ctx context.Context, questionID primitive.ObjectID, upvotes int) error
	SetAnswer(ctx context.Context, questionID primitive.ObjectID, answer, answeredBy string) error
	SetStarred(ctx context.Context, questionID primitive.ObjectID, starred bool) error
	DeleteQuestion(ctx context.Context, questionID primitive.ObjectID) error

	InsertQuestionVote(ctx context.Context, vote *models.QuestionVote) error
	GetQuestionVote(ctx context.Context, questionID primitive.ObjectID, voterID string) (*models.QuestionVote, error)
	DeleteQuestionVote(ctx context.Context, questionID primitive.ObjectID, voterID string) error
	CountQuestionVotes(ctx context.Context, questionID primitive.ObjectID) (int64, error)
	DeleteVotesByQuestionID(ctx context.Context, questionID primitive.ObjectID) (int64, error)
}

type questionRepository struct {
	collection      *mongo.Collection
	collectionVotes *mongo.Collection
}

func NewQuestionRepository(collection, collectionVotes *mongo.Collection) QuestionRepository {
	return &questionRepository{
		collection:      collection,
		collectionVotes: collectionVotes,
	}
}

func (r *questionRepository) InsertQuestion(ctx context.Context, question *models.Question) (primitive.ObjectID, error) {

	res, err := r.collection.InsertOne(ctx, question)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *questionRepository) GetQuestionByID(ctx context.Context, questionID primitive.ObjectID) (*models.Question, error) {

	filter := bson.M{"_id": questionID}

	var question models.Question
	err := r.collection.FindOne(ctx, filter).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &question, nil
}

func (r *questionRepository) GetQuestionsByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*models.Question, error) {

	filter := bson.M{"event_id": eventID}
	opts := options.Find().SetSort(bson.D{
		{Key: "is_starred", Value: -1},
		{Key: "upvotes", Value: -1},
		{Key: "created_at", Value: -1},
	})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []*models.Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

// SetUpvotes stores a recomputed vote count. The counter is derived from the
// question_votes rows, never incremented in place.
func (r *questionRepository) SetUpvotes(ctx context.Context, questionID primitive.ObjectID, upvotes int) error {

	filter := bson.M{"_id": questionID}
	update := bson.M{"$set": bson.M{
		"upvotes":   upvotes,
		"update_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *questionRepository) SetAnswer(ctx context.Context, questionID primitive.ObjectID, answer, answeredBy string) error {

	filter := bson.M{"_id": questionID}
	update := bson.M{"$set": bson.M{
		"is_answered": true,
		"answer":      answer,
		"answered_by": answeredBy,
		"update_at":   time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *questionRepository) SetStarred(ctx context.Context, questionID primitive.ObjectID, starred bool) error {

	filter := bson.M{"_id": questionID}
	update := bson.M{"$set": bson.M{
		"is_starred": starred,
		"update_at":  time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *questionRepository) DeleteQuestion(ctx context.Context, questionID primitive.ObjectID) error {

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": questionID})
	return err
}

func (r *questionRepository) InsertQuestionVote(ctx context.Context, vote *models.QuestionVote) error {

	_, err := r.collectionVotes.InsertOne(ctx, vote)
	return err
}

func (r *questionRepository) GetQuestionVote(ctx context.Context, questionID primitive.ObjectID, voterID string) (*models.QuestionVote, error) {

	filter := bson.M{"question_id": questionID, "voter_id": voterID}

	var vote models.QuestionVote
	err := r.collectionVotes.FindOne(ctx, filter).Decode(&vote)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &vote, nil
}

func (r *questionRepository) DeleteQuestionVote(ctx context.Context, questionID primitive.ObjectID, voterID string) error {

	_, err := r.collectionVotes.DeleteOne(ctx, bson.M{"question_id": questionID, "voter_id": voterID})
	return err
}

func (r *questionRepository) CountQuestionVotes(ctx context.Context, questionID primitive.ObjectID) (int64, error) {

	return r.collectionVotes.CountDocuments(ctx, bson.M{"question_id": questionID})
}

func (r *questionRepository) DeleteVotesByQuestionID(ctx context.Context, questionID primitive.ObjectID) (int64, error) {

	res, err := r.collectionVotes.DeleteMany(ctx, bson.M{"question_id": questionID})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}
