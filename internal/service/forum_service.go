package service

import (
	"context"
	"strings"
	"time"

	"engage-service/internal/models"
	"engage-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ForumService interface {
	CreateDiscussion(ctx context.Context, authorID string, req *models.CreateDiscussionRequest) (*models.Discussion, error)
	GetEventDiscussions(ctx context.Context, eventID string, pagination *models.Pagination) ([]*models.Discussion, int64, error)
	UpdateDiscussion(ctx context.Context, discussionID, userID, role string, req *models.UpdateDiscussionRequest) (*models.Discussion, error)
	DeleteDiscussion(ctx context.Context, discussionID, userID, role string) error

	CreateReply(ctx context.Context, discussionID, authorID string, req *models.CreateReplyRequest) (*models.Reply, error)
	GetReplies(ctx context.Context, discussionID string) ([]*models.ReplyWithParent, error)
	UpdateReply(ctx context.Context, replyID, userID string, content string) (*models.Reply, error)
	DeleteReply(ctx context.Context, replyID, userID, role string) error

	ToggleReaction(ctx context.Context, userID string, req *models.ReactionRequest) (*models.ReactionSummary, error)
}

type forumService struct {
	discussionRepo repository.DiscussionRepository
	reactionRepo   repository.ReactionRepository
	broadcaster    Broadcaster
}

func NewForumService(discussionRepo repository.DiscussionRepository,
	reactionRepo repository.ReactionRepository,
	broadcaster Broadcaster) ForumService {
	return &forumService{
		discussionRepo: discussionRepo,
		reactionRepo:   reactionRepo,
		broadcaster:    broadcaster,
	}
}

func (s *forumService) CreateDiscussion(ctx context.Context, authorID string, req *models.CreateDiscussionRequest) (*models.Discussion, error) {

	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		return nil, models.InvalidInput("invalid event id")
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, models.InvalidInput("title and content must not be empty")
	}

	now := time.Now()
	discussion := &models.Discussion{
		EventID:   eventID,
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdateAt:  now,
	}

	id, err := s.discussionRepo.InsertDiscussion(ctx, discussion)
	if err != nil {
		return nil, models.Internal("failed to create discussion", err)
	}
	discussion.ID = id

	s.broadcaster.Emit(EventRoom(req.EventID), EventDiscussionAdded, discussion)

	return discussion, nil
}

func (s *forumService) GetEventDiscussions(ctx context.Context, eventID string, pagination *models.Pagination) ([]*models.Discussion, int64, error) {

	objectEventID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, 0, models.InvalidInput("invalid event id")
	}

	discussions, total, err := s.discussionRepo.GetDiscussionsByEventID(ctx, objectEventID, pagination)
	if err != nil {
		return nil, 0, models.Internal("failed to list discussions", err)
	}

	return discussions, total, nil
}

func (s *forumService) UpdateDiscussion(ctx context.Context, discussionID, userID, role string, req *models.UpdateDiscussionRequest) (*models.Discussion, error) {

	discussion, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	if discussion.AuthorID != userID && role != "organizer" {
		return nil, models.Forbidden("only the author or an organizer may edit a discussion")
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, models.InvalidInput("title and content must not be empty")
	}

	if err := s.discussionRepo.UpdateDiscussion(ctx, discussion.ID, req.Title, req.Content); err != nil {
		return nil, models.Internal("failed to update discussion", err)
	}
	discussion.Title = req.Title
	discussion.Content = req.Content

	s.broadcaster.Emit(EventRoom(discussion.EventID.Hex()), EventDiscussionUpdated, discussion)

	return discussion, nil
}

func (s *forumService) DeleteDiscussion(ctx context.Context, discussionID, userID, role string) error {

	discussion, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return err
	}

	if discussion.AuthorID != userID && role != "organizer" {
		return models.Forbidden("only the author or an organizer may delete a discussion")
	}

	replies, err := s.discussionRepo.GetRepliesByDiscussionID(ctx, discussion.ID)
	if err != nil {
		return models.Internal("failed to load replies", err)
	}

	targetIDs := make([]primitive.ObjectID, 0, len(replies)+1)
	targetIDs = append(targetIDs, discussion.ID)
	for _, reply := range replies {
		targetIDs = append(targetIDs, reply.ID)
	}

	if err := s.discussionRepo.DeleteDiscussion(ctx, discussion.ID); err != nil {
		return models.Internal("failed to delete discussion", err)
	}
	if _, err := s.discussionRepo.DeleteRepliesByDiscussionID(ctx, discussion.ID); err != nil {
		return models.Internal("failed to delete replies", err)
	}
	if _, err := s.reactionRepo.DeleteReactionsByTargetIDs(ctx, targetIDs); err != nil {
		return models.Internal("failed to delete reactions", err)
	}

	s.broadcaster.Emit(EventRoom(discussion.EventID.Hex()), EventDiscussionDeleted, map[string]interface{}{
		"discussion_id": discussion.ID.Hex(),
	})

	return nil
}

func (s *forumService) CreateReply(ctx context.Context, discussionID, authorID string, req *models.CreateReplyRequest) (*models.Reply, error) {

	discussion, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, models.InvalidInput("content must not be empty")
	}

	var parentID *primitive.ObjectID
	if req.ParentReplyID != "" {
		id, err := primitive.ObjectIDFromHex(req.ParentReplyID)
		if err != nil {
			return nil, models.InvalidInput("invalid parent reply id")
		}
		parent, err := s.discussionRepo.GetReplyByID(ctx, id)
		if err != nil {
			return nil, models.Internal("failed to load parent reply", err)
		}
		if parent == nil || parent.DiscussionID != discussion.ID {
			return nil, models.NotFound("parent reply not found")
		}
		parentID = &id
	}

	now := time.Now()
	reply := &models.Reply{
		DiscussionID:  discussion.ID,
		ParentReplyID: parentID,
		AuthorID:      authorID,
		Content:       req.Content,
		CreatedAt:     now,
		UpdateAt:      now,
	}

	id, err := s.discussionRepo.InsertReply(ctx, reply)
	if err != nil {
		return nil, models.Internal("failed to create reply", err)
	}
	reply.ID = id

	if err := s.refreshReplyCount(ctx, discussion.ID); err != nil {
		return nil, err
	}

	s.broadcaster.Emit(EventRoom(discussion.EventID.Hex()), EventReplyAdded, reply)

	return reply, nil
}

// GetReplies returns a discussion's replies with their parent replies fetched
// explicitly, so clients never chase references themselves.
func (s *forumService) GetReplies(ctx context.Context, discussionID string) ([]*models.ReplyWithParent, error) {

	discussion, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	replies, err := s.discussionRepo.GetRepliesByDiscussionID(ctx, discussion.ID)
	if err != nil {
		return nil, models.Internal("failed to load replies", err)
	}

	byID := make(map[primitive.ObjectID]*models.Reply, len(replies))
	for _, reply := range replies {
		byID[reply.ID] = reply
	}

	out := make([]*models.ReplyWithParent, len(replies))
	for i, reply := range replies {
		item := &models.ReplyWithParent{Reply: reply}
		if reply.ParentReplyID != nil {
			item.ParentReply = byID[*reply.ParentReplyID]
		}
		out[i] = item
	}

	return out, nil
}

func (s *forumService) UpdateReply(ctx context.Context, replyID, userID string, content string) (*models.Reply, error) {

	reply, err := s.getReply(ctx, replyID)
	if err != nil {
		return nil, err
	}

	if reply.AuthorID != userID {
		return nil, models.Forbidden("only the author may edit a reply")
	}

	if strings.TrimSpace(content) == "" {
		return nil, models.InvalidInput("content must not be empty")
	}

	if err := s.discussionRepo.UpdateReply(ctx, reply.ID, content); err != nil {
		return nil, models.Internal("failed to update reply", err)
	}
	reply.Content = content

	discussion, err := s.getDiscussion(ctx, reply.DiscussionID.Hex())
	if err != nil {
		return nil, err
	}

	s.broadcaster.Emit(EventRoom(discussion.EventID.Hex()), EventReplyUpdated, reply)

	return reply, nil
}

func (s *forumService) DeleteReply(ctx context.Context, replyID, userID, role string) error {

	reply, err := s.getReply(ctx, replyID)
	if err != nil {
		return err
	}

	if reply.AuthorID != userID && role != "organizer" {
		return models.Forbidden("only the author or an organizer may delete a reply")
	}

	if err := s.discussionRepo.SoftDeleteReply(ctx, reply.ID); err != nil {
		return models.Internal("failed to delete reply", err)
	}

	if err := s.refreshReplyCount(ctx, reply.DiscussionID); err != nil {
		return err
	}

	discussion, err := s.getDiscussion(ctx, reply.DiscussionID.Hex())
	if err != nil {
		return err
	}

	s.broadcaster.Emit(EventRoom(discussion.EventID.Hex()), EventReplyDeleted, map[string]interface{}{
		"reply_id":      reply.ID.Hex(),
		"discussion_id": reply.DiscussionID.Hex(),
	})

	return nil
}

// ToggleReaction adds the user's reaction to a discussion or reply, switches
// it when the type differs, and removes it when the same type is sent again.
// The broadcast carries per-react counts recomputed from the rows.
func (s *forumService) ToggleReaction(ctx context.Context, userID string, req *models.ReactionRequest) (*models.ReactionSummary, error) {

	if req.TargetType != models.ReactionTargetDiscussion && req.TargetType != models.ReactionTargetReply {
		return nil, models.InvalidInput("unknown reaction target type")
	}
	if strings.TrimSpace(req.React) == "" {
		return nil, models.InvalidInput("react must not be empty")
	}

	targetID, err := primitive.ObjectIDFromHex(req.TargetID)
	if err != nil {
		return nil, models.InvalidInput("invalid target id")
	}

	eventID, err := s.resolveTargetEvent(ctx, req.TargetType, targetID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reactionRepo.GetReaction(ctx, targetID, userID)
	if err != nil {
		return nil, models.Internal("failed to look up reaction", err)
	}

	switch {
	case existing == nil:
		reaction := &models.Reaction{
			TargetType: req.TargetType,
			TargetID:   targetID,
			EventID:    eventID,
			UserID:     userID,
			React:      req.React,
			CreatedAt:  time.Now(),
		}
		if err := s.reactionRepo.InsertReaction(ctx, reaction); err != nil {
			if !repository.IsDuplicateKey(err) {
				return nil, models.Internal("failed to insert reaction", err)
			}
			if err := s.reactionRepo.UpdateReaction(ctx, targetID, userID, req.React); err != nil {
				return nil, models.Internal("failed to update reaction", err)
			}
		}
	case existing.React == req.React:
		if err := s.reactionRepo.DeleteReaction(ctx, targetID, userID); err != nil {
			return nil, models.Internal("failed to remove reaction", err)
		}
	default:
		if err := s.reactionRepo.UpdateReaction(ctx, targetID, userID, req.React); err != nil {
			return nil, models.Internal("failed to update reaction", err)
		}
	}

	reactions, err := s.reactionRepo.GetReactionsByTargetID(ctx, targetID)
	if err != nil {
		return nil, models.Internal("failed to load reactions", err)
	}

	summary := &models.ReactionSummary{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Counts:     make(map[string]int),
		Total:      len(reactions),
	}
	for _, reaction := range reactions {
		summary.Counts[reaction.React]++
	}

	s.broadcaster.Emit(EventRoom(eventID.Hex()), EventReactionAdded, summary)

	return summary, nil
}

func (s *forumService) resolveTargetEvent(ctx context.Context, targetType string, targetID primitive.ObjectID) (primitive.ObjectID, error) {

	if targetType == models.ReactionTargetDiscussion {
		discussion, err := s.discussionRepo.GetDiscussionByID(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, models.Internal("failed to load discussion", err)
		}
		if discussion == nil {
			return primitive.NilObjectID, models.NotFound("discussion not found")
		}
		return discussion.EventID, nil
	}

	reply, err := s.discussionRepo.GetReplyByID(ctx, targetID)
	if err != nil {
		return primitive.NilObjectID, models.Internal("failed to load reply", err)
	}
	if reply == nil {
		return primitive.NilObjectID, models.NotFound("reply not found")
	}

	discussion, err := s.discussionRepo.GetDiscussionByID(ctx, reply.DiscussionID)
	if err != nil {
		return primitive.NilObjectID, models.Internal("failed to load discussion", err)
	}
	if discussion == nil {
		return primitive.NilObjectID, models.NotFound("discussion not found")
	}

	return discussion.EventID, nil
}

func (s *forumService) refreshReplyCount(ctx context.Context, discussionID primitive.ObjectID) error {

	count, err := s.discussionRepo.CountReplies(ctx, discussionID)
	if err != nil {
		return models.Internal("failed to count replies", err)
	}
	if err := s.discussionRepo.SetReplyCount(ctx, discussionID, int(count)); err != nil {
		return models.Internal("failed to store reply count", err)
	}

	return nil
}

func (s *forumService) getDiscussion(ctx context.Context, discussionID string) (*models.Discussion, error) {

	objectID, err := primitive.ObjectIDFromHex(discussionID)
	if err != nil {
		return nil, models.InvalidInput("invalid discussion id")
	}

	discussion, err := s.discussionRepo.GetDiscussionByID(ctx, objectID)
	if err != nil {
		return nil, models.Internal("failed to load discussion", err)
	}
	if discussion == nil {
		return nil, models.NotFound("discussion not found")
	}

	return discussion, nil
}

func (s *forumService) getReply(ctx context.Context, replyID string) (*models.Reply, error) {

	objectID, err := primitive.ObjectIDFromHex(replyID)
	if err != nil {
		return nil, models.InvalidInput("invalid reply id")
	}

	reply, err := s.discussionRepo.GetReplyByID(ctx, objectID)
	if err != nil {
		return nil, models.Internal("failed to load reply", err)
	}
	if reply == nil {
		return nil, models.NotFound("reply not found")
	}

	return reply, nil
}
