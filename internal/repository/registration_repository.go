package repository

import (
	"context"
	"errors"

	"engage-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RegistrationRepository interface {
	InsertRegistration(ctx context.Context, registration *models.Registration) error
	GetRegistration(ctx context.Context, eventID primitive.ObjectID, userID string) (*models.Registration, error)
	IsUserInEvent(ctx context.Context, userID string, eventID primitive.ObjectID) (bool, error)
	CountEventRegistrations(ctx context.Context, eventID primitive.ObjectID) (int64, error)
}

type registrationRepository struct {
	collection *mongo.Collection
}

func NewRegistrationRepository(collection *mongo.Collection) RegistrationRepository {
	return &registrationRepository{
		collection: collection,
	}
}

func (r *registrationRepository) InsertRegistration(ctx context.Context, registration *models.Registration) error {

	_, err := r.collection.InsertOne(ctx, registration)
	return err
}

func (r *registrationRepository) GetRegistration(ctx context.Context, eventID primitive.ObjectID, userID string) (*models.Registration, error) {

	filter := bson.M{"event_id": eventID, "user_id": userID}

	var registration models.Registration
	err := r.collection.FindOne(ctx, filter).Decode(&registration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &registration, nil
}

func (r *registrationRepository) IsUserInEvent(ctx context.Context, userID string, eventID primitive.ObjectID) (bool, error) {

	filter := bson.M{"user_id": userID, "event_id": eventID}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *registrationRepository) CountEventRegistrations(ctx context.Context, eventID primitive.ObjectID) (int64, error) {

	return r.collection.CountDocuments(ctx, bson.M{"event_id": eventID})
}
