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

type DiscussionRepository interface {
	InsertDiscussion(ctx context.Context, discussion *models.Discussion) (primitive.ObjectID, error)
	GetDiscussionByID(ctx context.Context, discussionID primitive.ObjectID) (*models.Discussion, error)
	GetDiscussionsByEventID(ctx context.Context, eventID primitive.ObjectID, pagination *models.Pagination) ([]*models.Discussion, int64, error)
	UpdateDiscussion(ctx context.Context, discussionID primitive.ObjectID, title, content string) error
	SetReplyCount(ctx context.Context, discussionID primitive.ObjectID, count int) error
	DeleteDiscussion(ctx context.Context, discussionID primitive.ObjectID) error

	InsertReply(ctx context.Context, reply *models.Reply) (primitive.ObjectID, error)
	GetReplyByID(ctx context.Context, replyID primitive.ObjectID) (*models.Reply, error)
	GetRepliesByDiscussionID(ctx context.Context, discussionID primitive.ObjectID) ([]*models.Reply, error)
	UpdateReply(ctx context.Context, replyID primitive.ObjectID, content string) error
	SoftDeleteReply(ctx context.Context, replyID primitive.ObjectID) error
	CountReplies(ctx context.Context, discussionID primitive.ObjectID) (int64, error)
	DeleteRepliesByDiscussionID(ctx context.Context, discussionID primitive.ObjectID) (int64, error)
}

type discussionRepository struct {
	collection        *mongo.Collection
	collectionReplies *mongo.Collection
}

func NewDiscussionRepository(collection, collectionReplies *mongo.Collection) DiscussionRepository {
	return &discussionRepository{
		collection:        collection,
		collectionReplies: collectionReplies,
	}
}

func (r *discussionRepository) InsertDiscussion(ctx context.Context, discussion *models.Discussion) (primitive.ObjectID, error) {

	res, err := r.collection.InsertOne(ctx, discussion)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *discussionRepository) GetDiscussionByID(ctx context.Context, discussionID primitive.ObjectID) (*models.Discussion, error) {

	filter := bson.M{"_id": discussionID}

	var discussion models.Discussion
	err := r.collection.FindOne(ctx, filter).Decode(&discussion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &discussion, nil
}

func (r *discussionRepository) GetDiscussionsByEventID(ctx context.Context, eventID primitive.ObjectID, pagination *models.Pagination) ([]*models.Discussion, int64, error) {

	filter := bson.M{"event_id": eventID}

	totalItems, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (pagination.Page - 1) * pagination.Limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(pagination.Limit)).
		SetSort(bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var discussions []*models.Discussion
	if err := cur.All(ctx, &discussions); err != nil {
		return nil, 0, err
	}

	return discussions, totalItems, nil
}

func (r *discussionRepository) UpdateDiscussion(ctx context.Context, discussionID primitive.ObjectID, title, content string) error {

	filter := bson.M{"_id": discussionID}
	update := bson.M{"$set": bson.M{
		"title":     title,
		"content":   content,
		"update_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// SetReplyCount stores a recomputed reply count, derived from the reply rows.
func (r *discussionRepository) SetReplyCount(ctx context.Context, discussionID primitive.ObjectID, count int) error {

	filter := bson.M{"_id": discussionID}
	update := bson.M{"$set": bson.M{"reply_count": count}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *discussionRepository) DeleteDiscussion(ctx context.Context, discussionID primitive.ObjectID) error {

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": discussionID})
	return err
}

func (r *discussionRepository) InsertReply(ctx context.Context, reply *models.Reply) (primitive.ObjectID, error) {

	res, err := r.collectionReplies.InsertOne(ctx, reply)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *discussionRepository) GetReplyByID(ctx context.Context, replyID primitive.ObjectID) (*models.Reply, error) {

	filter := bson.M{"_id": replyID}

	var reply models.Reply
	err := r.collectionReplies.FindOne(ctx, filter).Decode(&reply)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &reply, nil
}

func (r *discussionRepository) GetRepliesByDiscussionID(ctx context.Context, discussionID primitive.ObjectID) ([]*models.Reply, error) {

	filter := bson.M{"discussion_id": discussionID, "is_delete": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := r.collectionReplies.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var replies []*models.Reply
	if err := cur.All(ctx, &replies); err != nil {
		return nil, err
	}

	return replies, nil
}

func (r *discussionRepository) UpdateReply(ctx context.Context, replyID primitive.ObjectID, content string) error {

	filter := bson.M{"_id": replyID}
	update := bson.M{"$set": bson.M{
		"content":   content,
		"update_at": time.Now(),
	}}

	_, err := r.collectionReplies.UpdateOne(ctx, filter, update)
	return err
}

func (r *discussionRepository) SoftDeleteReply(ctx context.Context, replyID primitive.ObjectID) error {

	filter := bson.M{"_id": replyID}
	update := bson.M{"$set": bson.M{
		"is_delete": true,
		"update_at": time.Now(),
	}}

	_, err := r.collectionReplies.UpdateOne(ctx, filter, update)
	return err
}

func (r *discussionRepository) CountReplies(ctx context.Context, discussionID primitive.ObjectID) (int64, error) {

	filter := bson.M{"discussion_id": discussionID, "is_delete": false}

	return r.collectionReplies.CountDocuments(ctx, filter)
}

func (r *discussionRepository) DeleteRepliesByDiscussionID(ctx context.Context, discussionID primitive.ObjectID) (int64, error) {

	res, err := r.collectionReplies.DeleteMany(ctx, bson.M{"discussion_id": discussionID})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}
