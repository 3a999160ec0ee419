package service

import (
	"context"
	"sync"
	"testing"

	"engage-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDiscussionRepo struct {
	mu          sync.Mutex
	discussions map[primitive.ObjectID]*models.Discussion
	replies     map[primitive.ObjectID]*models.Reply
}

func newFakeDiscussionRepo() *fakeDiscussionRepo {
	return &fakeDiscussionRepo{
		discussions: make(map[primitive.ObjectID]*models.Discussion),
		replies:     make(map[primitive.ObjectID]*models.Reply),
	}
}

func (r *fakeDiscussionRepo) InsertDiscussion(_ context.Context, discussion *models.Discussion) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *discussion
	stored.ID = id
	r.discussions[id] = &stored
	return id, nil
}

func (r *fakeDiscussionRepo) GetDiscussionByID(_ context.Context, discussionID primitive.ObjectID) (*models.Discussion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	discussion, ok := r.discussions[discussionID]
	if !ok {
		return nil, nil
	}
	copy := *discussion
	return &copy, nil
}

func (r *fakeDiscussionRepo) GetDiscussionsByEventID(_ context.Context, eventID primitive.ObjectID, _ *models.Pagination) ([]*models.Discussion, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Discussion
	for _, discussion := range r.discussions {
		if discussion.EventID == eventID {
			copy := *discussion
			out = append(out, &copy)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeDiscussionRepo) UpdateDiscussion(_ context.Context, discussionID primitive.ObjectID, title, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	discussion := r.discussions[discussionID]
	discussion.Title = title
	discussion.Content = content
	return nil
}

func (r *fakeDiscussionRepo) SetReplyCount(_ context.Context, discussionID primitive.ObjectID, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discussions[discussionID].ReplyCount = count
	return nil
}

func (r *fakeDiscussionRepo) DeleteDiscussion(_ context.Context, discussionID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.discussions, discussionID)
	return nil
}

func (r *fakeDiscussionRepo) InsertReply(_ context.Context, reply *models.Reply) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *reply
	stored.ID = id
	r.replies[id] = &stored
	return id, nil
}

func (r *fakeDiscussionRepo) GetReplyByID(_ context.Context, replyID primitive.ObjectID) (*models.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reply, ok := r.replies[replyID]
	if !ok {
		return nil, nil
	}
	copy := *reply
	return &copy, nil
}

func (r *fakeDiscussionRepo) GetRepliesByDiscussionID(_ context.Context, discussionID primitive.ObjectID) ([]*models.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Reply
	for _, reply := range r.replies {
		if reply.DiscussionID == discussionID {
			copy := *reply
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeDiscussionRepo) UpdateReply(_ context.Context, replyID primitive.ObjectID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[replyID].Content = content
	return nil
}

func (r *fakeDiscussionRepo) SoftDeleteReply(_ context.Context, replyID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[replyID].IsDelete = true
	return nil
}

func (r *fakeDiscussionRepo) CountReplies(_ context.Context, discussionID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, reply := range r.replies {
		if reply.DiscussionID == discussionID && !reply.IsDelete {
			count++
		}
	}
	return count, nil
}

func (r *fakeDiscussionRepo) DeleteRepliesByDiscussionID(_ context.Context, discussionID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, reply := range r.replies {
		if reply.DiscussionID == discussionID {
			delete(r.replies, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeReactionRepo struct {
	mu        sync.Mutex
	reactions map[string]*models.Reaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{reactions: make(map[string]*models.Reaction)}
}

func reactionKey(targetID primitive.ObjectID, userID string) string {
	return targetID.Hex() + "/" + userID
}

func (r *fakeReactionRepo) InsertReaction(_ context.Context, reaction *models.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions[reactionKey(reaction.TargetID, reaction.UserID)] = reaction
	return nil
}

func (r *fakeReactionRepo) GetReaction(_ context.Context, targetID primitive.ObjectID, userID string) (*models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaction, ok := r.reactions[reactionKey(targetID, userID)]
	if !ok {
		return nil, nil
	}
	return reaction, nil
}

func (r *fakeReactionRepo) DeleteReaction(_ context.Context, targetID primitive.ObjectID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reactions, reactionKey(targetID, userID))
	return nil
}

func (r *fakeReactionRepo) UpdateReaction(_ context.Context, targetID primitive.ObjectID, userID, react string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reaction, ok := r.reactions[reactionKey(targetID, userID)]; ok {
		reaction.React = react
	}
	return nil
}

func (r *fakeReactionRepo) GetReactionsByTargetID(_ context.Context, targetID primitive.ObjectID) ([]*models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Reaction
	for _, reaction := range r.reactions {
		if reaction.TargetID == targetID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

func (r *fakeReactionRepo) DeleteReactionsByTargetIDs(_ context.Context, targetIDs []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, reaction := range r.reactions {
		for _, targetID := range targetIDs {
			if reaction.TargetID == targetID {
				delete(r.reactions, key)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

type forumFixture struct {
	svc            ForumService
	discussionRepo *fakeDiscussionRepo
	reactionRepo   *fakeReactionRepo
	broadcaster    *fakeBroadcaster
}

func newForumFixture() *forumFixture {
	f := &forumFixture{
		discussionRepo: newFakeDiscussionRepo(),
		reactionRepo:   newFakeReactionRepo(),
		broadcaster:    &fakeBroadcaster{},
	}
	f.svc = NewForumService(f.discussionRepo, f.reactionRepo, f.broadcaster)
	return f
}

func (f *forumFixture) createDiscussion(t *testing.T) *models.Discussion {
	t.Helper()
	discussion, err := f.svc.CreateDiscussion(context.Background(), "author", &models.CreateDiscussionRequest{
		EventID: primitive.NewObjectID().Hex(),
		Title:   "Venue parking",
		Content: "Where do we park?",
	})
	require.NoError(t, err)
	return discussion
}

func TestCreateDiscussionValidation(t *testing.T) {
	f := newForumFixture()

	_, err := f.svc.CreateDiscussion(context.Background(), "author", &models.CreateDiscussionRequest{
		EventID: primitive.NewObjectID().Hex(),
		Title:   " ",
		Content: "body",
	})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}

func TestUpdateDiscussionPermissions(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)
	req := &models.UpdateDiscussionRequest{Title: "New", Content: "Body"}

	_, err := f.svc.UpdateDiscussion(ctx, discussion.ID.Hex(), "stranger", "participant", req)
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	updated, err := f.svc.UpdateDiscussion(ctx, discussion.ID.Hex(), "moderator", "organizer", req)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
}

func TestReplyCountRecomputed(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)

	reply, err := f.svc.CreateReply(ctx, discussion.ID.Hex(), "alice", &models.CreateReplyRequest{Content: "lot B"})
	require.NoError(t, err)
	_, err = f.svc.CreateReply(ctx, discussion.ID.Hex(), "bob", &models.CreateReplyRequest{Content: "or the street"})
	require.NoError(t, err)

	stored, err := f.discussionRepo.GetDiscussionByID(ctx, discussion.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReplyCount)

	// soft-deleting a reply drops it from the recomputed count
	require.NoError(t, f.svc.DeleteReply(ctx, reply.ID.Hex(), "alice", "participant"))
	stored, err = f.discussionRepo.GetDiscussionByID(ctx, discussion.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReplyCount)
}

func TestCreateReplyParentResolution(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)
	other := f.createDiscussion(t)

	parent, err := f.svc.CreateReply(ctx, discussion.ID.Hex(), "alice", &models.CreateReplyRequest{Content: "top"})
	require.NoError(t, err)

	// parent in another discussion is rejected
	_, err = f.svc.CreateReply(ctx, other.ID.Hex(), "bob", &models.CreateReplyRequest{
		Content: "nested", ParentReplyID: parent.ID.Hex(),
	})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	nested, err := f.svc.CreateReply(ctx, discussion.ID.Hex(), "bob", &models.CreateReplyRequest{
		Content: "nested", ParentReplyID: parent.ID.Hex(),
	})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentReplyID)
	assert.Equal(t, parent.ID, *nested.ParentReplyID)

	// GetReplies resolves the parent explicitly
	replies, err := f.svc.GetReplies(ctx, discussion.ID.Hex())
	require.NoError(t, err)
	var withParent *models.ReplyWithParent
	for _, item := range replies {
		if item.Reply.ID == nested.ID {
			withParent = item
		}
	}
	require.NotNil(t, withParent)
	require.NotNil(t, withParent.ParentReply)
	assert.Equal(t, parent.ID, withParent.ParentReply.ID)
}

func TestToggleReactionLifecycle(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)
	req := &models.ReactionRequest{
		TargetType: models.ReactionTargetDiscussion,
		TargetID:   discussion.ID.Hex(),
		React:      "like",
	}

	summary, err := f.svc.ToggleReaction(ctx, "alice", req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts["like"])
	assert.Equal(t, 1, summary.Total)

	// same react again removes it
	summary, err = f.svc.ToggleReaction(ctx, "alice", req)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)

	// different react switches
	summary, err = f.svc.ToggleReaction(ctx, "alice", req)
	require.NoError(t, err)
	req2 := &models.ReactionRequest{
		TargetType: models.ReactionTargetDiscussion,
		TargetID:   discussion.ID.Hex(),
		React:      "heart",
	}
	summary, err = f.svc.ToggleReaction(ctx, "alice", req2)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts["heart"])
	assert.Zero(t, summary.Counts["like"])
	assert.Equal(t, 1, summary.Total)
}

func TestToggleReactionValidation(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	_, err := f.svc.ToggleReaction(ctx, "alice", &models.ReactionRequest{
		TargetType: "comment", TargetID: primitive.NewObjectID().Hex(), React: "like",
	})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, err = f.svc.ToggleReaction(ctx, "alice", &models.ReactionRequest{
		TargetType: models.ReactionTargetDiscussion, TargetID: primitive.NewObjectID().Hex(), React: "like",
	})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestDeleteDiscussionCascades(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)
	reply, err := f.svc.CreateReply(ctx, discussion.ID.Hex(), "alice", &models.CreateReplyRequest{Content: "hi"})
	require.NoError(t, err)

	_, err = f.svc.ToggleReaction(ctx, "bob", &models.ReactionRequest{
		TargetType: models.ReactionTargetReply,
		TargetID:   reply.ID.Hex(),
		React:      "like",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDiscussion(ctx, discussion.ID.Hex(), "author", "participant"))

	remaining, err := f.discussionRepo.GetRepliesByDiscussionID(ctx, discussion.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	reactions, err := f.reactionRepo.GetReactionsByTargetID(ctx, reply.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestOneEmitPerMutation(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	discussion := f.createDiscussion(t)
	_, err := f.svc.CreateReply(ctx, discussion.ID.Hex(), "alice", &models.CreateReplyRequest{Content: "hi"})
	require.NoError(t, err)

	events := f.broadcaster.events()
	assert.Equal(t, []string{EventDiscussionAdded, EventReplyAdded}, events)
}
