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

type PollRepository interface {
	InsertPoll(ctx context.Context, poll *models.Poll) (primitive.ObjectID, error)
	GetPollByID(ctx context.Context, pollID primitive.ObjectID) (*models.Poll, error)
	GetPollsByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*models.Poll, error)
	SetActive(ctx context.Context, pollID primitive.ObjectID, startTime time.Time, endTime *time.Time) error
	SetEnded(ctx context.Context, pollID primitive.ObjectID, endTime time.Time) error
	ReplaceTally(ctx context.Context, pollID primitive.ObjectID, results []models.PollResult, totalVotes, uniqueVoters int) error
	DeletePoll(ctx context.Context, pollID primitive.ObjectID) error
}

type pollRepository struct {
	collection *mongo.Collection
}

func NewPollRepository(collection *mongo.Collection) PollRepository {
	return &pollRepository{
		collection: collection,
	}
}

func (r *pollRepository) InsertPoll(ctx context.Context, poll *models.Poll) (primitive.ObjectID, error) {

	res, err := r.collection.InsertOne(ctx, poll)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}

	return insertedID, nil
}

func (r *pollRepository) GetPollByID(ctx context.Context, pollID primitive.ObjectID) (*models.Poll, error) {

	filter := bson.M{"_id": pollID}

	var poll models.Poll
	err := r.collection.FindOne(ctx, filter).Decode(&poll)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &poll, nil
}

func (r *pollRepository) GetPollsByEventID(ctx context.Context, eventID primitive.ObjectID) ([]*models.Poll, error) {

	filter := bson.M{"event_id": eventID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var polls []*models.Poll
	if err := cur.All(ctx, &polls); err != nil {
		return nil, err
	}

	return polls, nil
}

func (r *pollRepository) SetActive(ctx context.Context, pollID primitive.ObjectID, startTime time.Time, endTime *time.Time) error {

	filter := bson.M{"_id": pollID}
	set := bson.M{
		"is_active":  true,
		"start_time": startTime,
		"update_at":  time.Now(),
	}
	if endTime != nil {
		set["end_time"] = *endTime
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	return err
}

func (r *pollRepository) SetEnded(ctx context.Context, pollID primitive.ObjectID, endTime time.Time) error {

	filter := bson.M{"_id": pollID}
	update := bson.M{"$set": bson.M{
		"is_active": false,
		"end_time":  endTime,
		"update_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// ReplaceTally writes the recomputed tally wholesale. The results field is
// always replaced as a unit, never incremented field-by-field.
func (r *pollRepository) ReplaceTally(ctx context.Context, pollID primitive.ObjectID, results []models.PollResult, totalVotes, uniqueVoters int) error {

	filter := bson.M{"_id": pollID}
	update := bson.M{"$set": bson.M{
		"results":       results,
		"total_votes":   totalVotes,
		"unique_voters": uniqueVoters,
		"update_at":     time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *pollRepository) DeletePoll(ctx context.Context, pollID primitive.ObjectID) error {

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": pollID})
	return err
}
