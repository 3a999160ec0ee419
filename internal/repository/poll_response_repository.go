package repository

import (
	"context"
	"errors"
	"time"

	"engage-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PollResponseRepository interface {
	InsertResponse(ctx context.Context, response *models.PollResponse) (primitive.ObjectID, error)
	UpdateResponse(ctx context.Context, pollID primitive.ObjectID, voterID string, payload models.ResponsePayload, submittedAt time.Time) error
	GetResponse(ctx context.Context, pollID primitive.ObjectID, voterID string) (*models.PollResponse, error)
	GetResponsesByPollID(ctx context.Context, pollID primitive.ObjectID) ([]*models.PollResponse, error)
	DeleteResponsesByPollID(ctx context.Context, pollID primitive.ObjectID) (int64, error)
}

type pollResponseRepository struct {
	collection *mongo.Collection
}

func NewPollResponseRepository(collection *mongo.Collection) PollResponseRepository {
	return &pollResponseRepository{
		collection: collection,
	}
}

func (r *pollResponseRepository) InsertResponse(ctx context.Context, response *models.PollResponse) (primitive.ObjectID, error) {

	res, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}

	return insertedID, nil
}

// UpdateResponse overwrites the response payload of the voter's existing row.
// A re-vote changes the ballot, never the row count.
func (r *pollResponseRepository) UpdateResponse(ctx context.Context, pollID primitive.ObjectID, voterID string, payload models.ResponsePayload, submittedAt time.Time) error {

	filter := bson.M{"poll_id": pollID, "voter_id": voterID}
	update := bson.M{"$set": bson.M{
		"response":     payload,
		"submitted_at": submittedAt,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *pollResponseRepository) GetResponse(ctx context.Context, pollID primitive.ObjectID, voterID string) (*models.PollResponse, error) {

	filter := bson.M{"poll_id": pollID, "voter_id": voterID}

	var response models.PollResponse
	err := r.collection.FindOne(ctx, filter).Decode(&response)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &response, nil
}

func (r *pollResponseRepository) GetResponsesByPollID(ctx context.Context, pollID primitive.ObjectID) ([]*models.PollResponse, error) {

	filter := bson.M{"poll_id": pollID}

	cur, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var responses []*models.PollResponse
	if err := cur.All(ctx, &responses); err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *pollResponseRepository) DeleteResponsesByPollID(ctx context.Context, pollID primitive.ObjectID) (int64, error) {

	res, err := r.collection.DeleteMany(ctx, bson.M{"poll_id": pollID})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}
