package service

import (
	"context"
	"strings"
	"time"

	"engage-service/internal/models"
	"engage-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageService interface {
	SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.DirectMessage, error)
	GetChatMessages(ctx context.Context, userID, otherUserID string, pagination *models.Pagination) (*models.PaginatedMessages, error)
	EditMessage(ctx context.Context, messageID, userID, content string) (*models.DirectMessage, error)
	DeleteMessage(ctx context.Context, messageID, userID string) error
	ToggleMessageReaction(ctx context.Context, messageID, userID, react string) ([]*models.MessageReaction, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	broadcaster Broadcaster
	presence    *PresenceService
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository,
	broadcaster Broadcaster,
	presence *PresenceService,
	notifier Notifier) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		presence:    presence,
		notifier:    notifier,
	}
}

func (s *messageService) SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.DirectMessage, error) {

	if req.RecipientID == "" || req.RecipientID == senderID {
		return nil, models.InvalidInput("invalid recipient")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, models.InvalidInput("content must not be empty")
	}

	chatKey := ChatRoom(senderID, req.RecipientID)
	now := time.Now()
	message := &models.DirectMessage{
		ChatKey:     chatKey,
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		CreatedAt:   now,
		UpdateAt:    now,
	}

	id, err := s.messageRepo.SaveMessage(ctx, message)
	if err != nil {
		return nil, models.Internal("failed to save message", err)
	}
	message.ID = id

	s.broadcaster.Emit(chatKey, EventNewMessage, message)

	if !s.presence.IsOnline(req.RecipientID) {
		s.notifier.PushMessage(ctx, req.RecipientID, senderID, req.Content)
	}

	return message, nil
}

func (s *messageService) GetChatMessages(ctx context.Context, userID, otherUserID string, pagination *models.Pagination) (*models.PaginatedMessages, error) {

	if otherUserID == "" {
		return nil, models.InvalidInput("missing chat partner")
	}

	chatKey := ChatRoom(userID, otherUserID)
	messages, total, err := s.messageRepo.GetMessagesByChatKey(ctx, chatKey, pagination)
	if err != nil {
		return nil, models.Internal("failed to load messages", err)
	}

	for _, message := range messages {
		if message.IsDelete {
			message.Content = ""
		}
	}

	return &models.PaginatedMessages{
		Messages:   messages,
		TotalItems: total,
	}, nil
}

func (s *messageService) EditMessage(ctx context.Context, messageID, userID, content string) (*models.DirectMessage, error) {

	message, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if message.SenderID != userID {
		return nil, models.Forbidden("only the sender may edit a message")
	}
	if message.IsDelete {
		return nil, models.InvalidState("message was deleted")
	}
	if strings.TrimSpace(content) == "" {
		return nil, models.InvalidInput("content must not be empty")
	}

	if err := s.messageRepo.EditMessage(ctx, message.ID, content); err != nil {
		return nil, models.Internal("failed to edit message", err)
	}
	message.Content = content
	message.IsEdit = true

	s.broadcaster.Emit(message.ChatKey, EventMessageEdited, message)

	return message, nil
}

func (s *messageService) DeleteMessage(ctx context.Context, messageID, userID string) error {

	message, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != userID {
		return models.Forbidden("only the sender may delete a message")
	}

	if err := s.messageRepo.SoftDeleteMessage(ctx, message.ID); err != nil {
		return models.Internal("failed to delete message", err)
	}

	s.broadcaster.Emit(message.ChatKey, EventMessageDeleted, map[string]interface{}{
		"message_id": message.ID.Hex(),
		"chat_key":   message.ChatKey,
	})

	return nil
}

// ToggleMessageReaction adds, switches, or removes the user's reaction and
// broadcasts the full recomputed reaction list for the message.
func (s *messageService) ToggleMessageReaction(ctx context.Context, messageID, userID, react string) ([]*models.MessageReaction, error) {

	if strings.TrimSpace(react) == "" {
		return nil, models.InvalidInput("react must not be empty")
	}

	message, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsDelete {
		return nil, models.InvalidState("message was deleted")
	}

	existing, err := s.messageRepo.GetMessageReaction(ctx, message.ID, userID)
	if err != nil {
		return nil, models.Internal("failed to look up reaction", err)
	}

	switch {
	case existing == nil:
		reaction := &models.MessageReaction{
			MessageID: message.ID,
			ChatKey:   message.ChatKey,
			UserID:    userID,
			React:     react,
			CreatedAt: time.Now(),
		}
		if err := s.messageRepo.InsertMessageReaction(ctx, reaction); err != nil {
			if !repository.IsDuplicateKey(err) {
				return nil, models.Internal("failed to insert reaction", err)
			}
			if err := s.messageRepo.UpdateMessageReaction(ctx, message.ID, userID, react); err != nil {
				return nil, models.Internal("failed to update reaction", err)
			}
		}
	case existing.React == react:
		if err := s.messageRepo.DeleteMessageReaction(ctx, message.ID, userID); err != nil {
			return nil, models.Internal("failed to remove reaction", err)
		}
	default:
		if err := s.messageRepo.UpdateMessageReaction(ctx, message.ID, userID, react); err != nil {
			return nil, models.Internal("failed to update reaction", err)
		}
	}

	reactions, err := s.messageRepo.GetMessageReactions(ctx, message.ID)
	if err != nil {
		return nil, models.Internal("failed to load reactions", err)
	}

	s.broadcaster.Emit(message.ChatKey, EventMessageReaction, map[string]interface{}{
		"message_id": message.ID.Hex(),
		"chat_key":   message.ChatKey,
		"reactions":  reactions,
	})

	return reactions, nil
}

func (s *messageService) getMessage(ctx context.Context, messageID string) (*models.DirectMessage, error) {

	objectID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, models.InvalidInput("invalid message id")
	}

	message, err := s.messageRepo.GetMessageByID(ctx, objectID)
	if err != nil {
		return nil, models.Internal("failed to load message", err)
	}
	if message == nil {
		return nil, models.NotFound("message not found")
	}

	return message, nil
}
