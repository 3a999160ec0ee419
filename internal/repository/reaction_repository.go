package repository

import (
	"context"
	"errors"

	"engage-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReactionRepository interface {
	InsertReaction(ctx context.Context, reaction *models.Reaction) error
	GetReaction(ctx context.Context, targetID primitive.ObjectID, userID string) (*models.Reaction, error)
	DeleteReaction(ctx context.Context, targetID primitive.ObjectID, userID string) error
	UpdateReaction(ctx context.Context, targetID primitive.ObjectID, userID, react string) error
	GetReactionsByTargetID(ctx context.Context, targetID primitive.ObjectID) ([]*models.Reaction, error)
	DeleteReactionsByTargetIDs(ctx context.Context, targetIDs []primitive.ObjectID) (int64, error)
}

type reactionRepository struct {
	collection *mongo.Collection
}

func NewReactionRepository(collection *mongo.Collection) ReactionRepository {
	return &reactionRepository{
		collection: collection,
	}
}

func (r *reactionRepository) InsertReaction(ctx context.Context, reaction *models.Reaction) error {

	_, err := r.collection.InsertOne(ctx, reaction)
	return err
}

func (r *reactionRepository) GetReaction(ctx context.Context, targetID primitive.ObjectID, userID string) (*models.Reaction, error) {

	filter := bson.M{"target_id": targetID, "user_id": userID}

	var reaction models.Reaction
	err := r.collection.FindOne(ctx, filter).Decode(&reaction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &reaction, nil
}

func (r *reactionRepository) DeleteReaction(ctx context.Context, targetID primitive.ObjectID, userID string) error {

	_, err := r.collection.DeleteOne(ctx, bson.M{"target_id": targetID, "user_id": userID})
	return err
}

func (r *reactionRepository) UpdateReaction(ctx context.Context, targetID primitive.ObjectID, userID, react string) error {

	filter := bson.M{"target_id": targetID, "user_id": userID}
	update := bson.M{"$set": bson.M{"react": react}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *reactionRepository) GetReactionsByTargetID(ctx context.Context, targetID primitive.ObjectID) ([]*models.Reaction, error) {

	cur, err := r.collection.Find(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reactions []*models.Reaction
	if err := cur.All(ctx, &reactions); err != nil {
		return nil, err
	}

	return reactions, nil
}

func (r *reactionRepository) DeleteReactionsByTargetIDs(ctx context.Context, targetIDs []primitive.ObjectID) (int64, error) {

	if len(targetIDs) == 0 {
		return 0, nil
	}

	res, err := r.collection.DeleteMany(ctx, bson.M{"target_id": bson.M{"$in": targetIDs}})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}
