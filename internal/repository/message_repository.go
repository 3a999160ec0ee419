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

type MessageRepository interface {
	SaveMessage(ctx context.Context, message *models.DirectMessage) (primitive.ObjectID, error)
	GetMessageByID(ctx context.Context, messageID primitive.ObjectID) (*models.DirectMessage, error)
	GetMessagesByChatKey(ctx context.Context, chatKey string, pagination *models.Pagination) ([]*models.DirectMessage, int64, error)
	EditMessage(ctx context.Context, messageID primitive.ObjectID, content string) error
	SoftDeleteMessage(ctx context.Context, messageID primitive.ObjectID) error

	InsertMessageReaction(ctx context.Context, reaction *models.MessageReaction) error
	GetMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID string) (*models.MessageReaction, error)
	UpdateMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID, react string) error
	DeleteMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID string) error
	GetMessageReactions(ctx context.Context, messageID primitive.ObjectID) ([]*models.MessageReaction, error)
}

type messageRepository struct {
	collection          *mongo.Collection
	collectionReactions *mongo.Collection
}

func NewMessageRepository(collection, collectionReactions *mongo.Collection) MessageRepository {
	return &messageRepository{
		collection:          collection,
		collectionReactions: collectionReactions,
	}
}

func (r *messageRepository) SaveMessage(ctx context.Context, message *models.DirectMessage) (primitive.ObjectID, error) {

	res, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *messageRepository) GetMessageByID(ctx context.Context, messageID primitive.ObjectID) (*models.DirectMessage, error) {

	filter := bson.M{"_id": messageID}

	var message models.DirectMessage
	err := r.collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &message, nil
}

func (r *messageRepository) GetMessagesByChatKey(ctx context.Context, chatKey string, pagination *models.Pagination) ([]*models.DirectMessage, int64, error) {

	filter := bson.M{"chat_key": chatKey}

	totalItems, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (pagination.Page - 1) * pagination.Limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(pagination.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var messages []*models.DirectMessage
	if err := cur.All(ctx, &messages); err != nil {
		return nil, 0, err
	}

	return messages, totalItems, nil
}

func (r *messageRepository) EditMessage(ctx context.Context, messageID primitive.ObjectID, content string) error {

	filter := bson.M{"_id": messageID}
	update := bson.M{"$set": bson.M{
		"content":   content,
		"is_edit":   true,
		"update_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) SoftDeleteMessage(ctx context.Context, messageID primitive.ObjectID) error {

	filter := bson.M{"_id": messageID}
	update := bson.M{"$set": bson.M{
		"is_delete": true,
		"update_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) InsertMessageReaction(ctx context.Context, reaction *models.MessageReaction) error {

	_, err := r.collectionReactions.InsertOne(ctx, reaction)
	return err
}

func (r *messageRepository) GetMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID string) (*models.MessageReaction, error) {

	filter := bson.M{"message_id": messageID, "user_id": userID}

	var reaction models.MessageReaction
	err := r.collectionReactions.FindOne(ctx, filter).Decode(&reaction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &reaction, nil
}

func (r *messageRepository) UpdateMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID, react string) error {

	filter := bson.M{"message_id": messageID, "user_id": userID}
	update := bson.M{"$set": bson.M{"react": react}}

	_, err := r.collectionReactions.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) DeleteMessageReaction(ctx context.Context, messageID primitive.ObjectID, userID string) error {

	_, err := r.collectionReactions.DeleteOne(ctx, bson.M{"message_id": messageID, "user_id": userID})
	return err
}

func (r *messageRepository) GetMessageReactions(ctx context.Context, messageID primitive.ObjectID) ([]*models.MessageReaction, error) {

	cur, err := r.collectionReactions.Find(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reactions []*models.MessageReaction
	if err := cur.All(ctx, &reactions); err != nil {
		return nil, err
	}

	return reactions, nil
}
