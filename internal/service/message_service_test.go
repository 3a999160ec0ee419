package service

import (
	"context"
	"sync"
	"testing"

	"engage-service/internal/models"
	applog "engage-service/pkg/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[primitive.ObjectID]*models.DirectMessage
	reactions map[string]*models.MessageReaction
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[primitive.ObjectID]*models.DirectMessage),
		reactions: make(map[string]*models.MessageReaction),
	}
}

func messageReactionKey(messageID primitive.ObjectID, userID string) string {
	return messageID.Hex() + "/" + userID
}

func (r *fakeMessageRepo) SaveMessage(_ context.Context, message *models.DirectMessage) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *message
	stored.ID = id
	r.messages[id] = &stored
	return id, nil
}

func (r *fakeMessageRepo) GetMessageByID(_ context.Context, messageID primitive.ObjectID) (*models.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[messageID]
	if !ok {
		return nil, nil
	}
	copy := *message
	return &copy, nil
}

func (r *fakeMessageRepo) GetMessagesByChatKey(_ context.Context, chatKey string, _ *models.Pagination) ([]*models.DirectMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DirectMessage
	for _, message := range r.messages {
		if message.ChatKey == chatKey {
			copy := *message
			out = append(out, &copy)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMessageRepo) EditMessage(_ context.Context, messageID primitive.ObjectID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message := r.messages[messageID]
	message.Content = content
	message.IsEdit = true
	return nil
}

func (r *fakeMessageRepo) SoftDeleteMessage(_ context.Context, messageID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[messageID].IsDelete = true
	return nil
}

func (r *fakeMessageRepo) InsertMessageReaction(_ context.Context, reaction *models.MessageReaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions[messageReactionKey(reaction.MessageID, reaction.UserID)] = reaction
	return nil
}

func (r *fakeMessageRepo) GetMessageReaction(_ context.Context, messageID primitive.ObjectID, userID string) (*models.MessageReaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaction, ok := r.reactions[messageReactionKey(messageID, userID)]
	if !ok {
		return nil, nil
	}
	return reaction, nil
}

func (r *fakeMessageRepo) UpdateMessageReaction(_ context.Context, messageID primitive.ObjectID, userID, react string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reaction, ok := r.reactions[messageReactionKey(messageID, userID)]; ok {
		reaction.React = react
	}
	return nil
}

func (r *fakeMessageRepo) DeleteMessageReaction(_ context.Context, messageID primitive.ObjectID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reactions, messageReactionKey(messageID, userID))
	return nil
}

func (r *fakeMessageRepo) GetMessageReactions(_ context.Context, messageID primitive.ObjectID) ([]*models.MessageReaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MessageReaction
	for _, reaction := range r.reactions {
		if reaction.MessageID == messageID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

type recordedPush struct {
	RecipientID string
	SenderID    string
	Preview     string
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []recordedPush
}

func (n *fakeNotifier) PushMessage(_ context.Context, recipientID, senderID, preview string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, recordedPush{recipientID, senderID, preview})
}

type messageFixture struct {
	svc         MessageService
	repo        *fakeMessageRepo
	broadcaster *fakeBroadcaster
	presence    *PresenceService
	notifier    *fakeNotifier
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		repo:        newFakeMessageRepo(),
		broadcaster: &fakeBroadcaster{},
		presence:    NewPresenceService("", applog.NewNop()),
		notifier:    &fakeNotifier{},
	}
	f.svc = NewMessageService(f.repo, f.broadcaster, f.presence, f.notifier)
	return f
}

func TestSendMessageBroadcastsToChatRoom(t *testing.T) {
	f := newMessageFixture()

	message, err := f.svc.SendMessage(context.Background(), "bob", &models.SendMessageRequest{
		RecipientID: "alice",
		Content:     "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "chat-alice-bob", message.ChatKey)
	require.Len(t, f.broadcaster.emits, 1)
	assert.Equal(t, "chat-alice-bob", f.broadcaster.emits[0].Room)
	assert.Equal(t, EventNewMessage, f.broadcaster.emits[0].Event)
}

func TestSendMessageValidation(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "bob", Content: "hi"})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, err = f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "  "})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}

func TestSendMessagePushesWhenRecipientOffline(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "hi"})
	require.NoError(t, err)
	require.Len(t, f.notifier.pushes, 1)
	assert.Equal(t, "alice", f.notifier.pushes[0].RecipientID)

	f.presence.MarkOnline("alice")
	_, err = f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "again"})
	require.NoError(t, err)
	assert.Len(t, f.notifier.pushes, 1, "no push while recipient is connected")
}

func TestEditMessageSenderOnly(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	message, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "hi"})
	require.NoError(t, err)

	_, err = f.svc.EditMessage(ctx, message.ID.Hex(), "alice", "changed")
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	edited, err := f.svc.EditMessage(ctx, message.ID.Hex(), "bob", "changed")
	require.NoError(t, err)
	assert.True(t, edited.IsEdit)
	assert.Equal(t, "changed", edited.Content)
}

func TestDeletedMessageRejectsEdits(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	message, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMessage(ctx, message.ID.Hex(), "bob"))

	_, err = f.svc.EditMessage(ctx, message.ID.Hex(), "bob", "changed")
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))

	_, err = f.svc.ToggleMessageReaction(ctx, message.ID.Hex(), "alice", "like")
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
}

func TestGetChatMessagesBlanksDeleted(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	message, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "secret"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteMessage(ctx, message.ID.Hex(), "bob"))

	page, err := f.svc.GetChatMessages(ctx, "alice", "bob", &models.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.True(t, page.Messages[0].IsDelete)
	assert.Empty(t, page.Messages[0].Content)
}

func TestToggleMessageReaction(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	message, err := f.svc.SendMessage(ctx, "bob", &models.SendMessageRequest{RecipientID: "alice", Content: "hi"})
	require.NoError(t, err)

	reactions, err := f.svc.ToggleMessageReaction(ctx, message.ID.Hex(), "alice", "like")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "like", reactions[0].React)

	reactions, err = f.svc.ToggleMessageReaction(ctx, message.ID.Hex(), "alice", "heart")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "heart", reactions[0].React)

	reactions, err = f.svc.ToggleMessageReaction(ctx, message.ID.Hex(), "alice", "heart")
	require.NoError(t, err)
	assert.Empty(t, reactions)
}
