package service

import (
	"context"
	"strings"
	"time"

	"engage-service/internal/models"
	"engage-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuestionService interface {
	SubmitQuestion(ctx context.Context, authorID string, req *models.CreateQuestionRequest) (*models.Question, error)
	GetEventQuestions(ctx context.Context, eventID string) ([]*models.Question, error)
	ToggleUpvote(ctx context.Context, questionID, voterID string) (*models.Question, error)
	AnswerQuestion(ctx context.Context, questionID, userID, role string, req *models.AnswerQuestionRequest) (*models.Question, error)
	StarQuestion(ctx context.Context, questionID, userID, role string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID, userID, role string) error
}

type questionService struct {
	questionRepo repository.QuestionRepository
	broadcaster  Broadcaster
}

func NewQuestionService(questionRepo repository.QuestionRepository, broadcaster Broadcaster) QuestionService {
	return &questionService{
		questionRepo: questionRepo,
		broadcaster:  broadcaster,
	}
}

func (s *questionService) SubmitQuestion(ctx context.Context, authorID string, req *models.CreateQuestionRequest) (*models.Question, error) {

	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		return nil, models.InvalidInput("invalid event id")
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, models.InvalidInput("question must not be empty")
	}

	now := time.Now()
	question := &models.Question{
		EventID:     eventID,
		AuthorID:    authorID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   now,
		UpdateAt:    now,
	}

	id, err := s.questionRepo.InsertQuestion(ctx, question)
	if err != nil {
		return nil, models.Internal("failed to create question", err)
	}
	question.ID = id

	s.broadcaster.Emit(EventRoom(req.EventID), EventQuestionAdded, redactAuthor(question))

	return question, nil
}

// redactAuthor returns a copy of the question safe to hand to other
// attendees. The stored row keeps the author so ownership checks still
// work, but an anonymous question never leaves the service with its
// author attached.
func redactAuthor(question *models.Question) *models.Question {
	if !question.IsAnonymous {
		return question
	}
	redacted := *question
	redacted.AuthorID = ""
	return &redacted
}

func (s *questionService) GetEventQuestions(ctx context.Context, eventID string) ([]*models.Question, error) {

	objectEventID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.InvalidInput("invalid event id")
	}

	questions, err := s.questionRepo.GetQuestionsByEventID(ctx, objectEventID)
	if err != nil {
		return nil, models.Internal("failed to list questions", err)
	}

	redacted := make([]*models.Question, len(questions))
	for i, question := range questions {
		redacted[i] = redactAuthor(question)
	}

	return redacted, nil
}

// ToggleUpvote records or withdraws the voter's upvote. The counter on the
// question is always recomputed from the vote rows, so a racing pair of
// toggles cannot drift it.
func (s *questionService) ToggleUpvote(ctx context.Context, questionID, voterID string) (*models.Question, error) {

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	existing, err := s.questionRepo.GetQuestionVote(ctx, question.ID, voterID)
	if err != nil {
		return nil, models.Internal("failed to look up vote", err)
	}

	if existing != nil {
		if err := s.questionRepo.DeleteQuestionVote(ctx, question.ID, voterID); err != nil {
			return nil, models.Internal("failed to withdraw vote", err)
		}
	} else {
		vote := &models.QuestionVote{
			QuestionID: question.ID,
			VoterID:    voterID,
			CreatedAt:  time.Now(),
		}
		if err := s.questionRepo.InsertQuestionVote(ctx, vote); err != nil && !repository.IsDuplicateKey(err) {
			return nil, models.Internal("failed to record vote", err)
		}
		// a duplicate-key race means the upvote already exists, which is
		// the requested end state
	}

	count, err := s.questionRepo.CountQuestionVotes(ctx, question.ID)
	if err != nil {
		return nil, models.Internal("failed to count votes", err)
	}
	if err := s.questionRepo.SetUpvotes(ctx, question.ID, int(count)); err != nil {
		return nil, models.Internal("failed to store vote count", err)
	}
	question.Upvotes = int(count)

	s.broadcaster.Emit(EventRoom(question.EventID.Hex()), EventQuestionVoted, map[string]interface{}{
		"question_id": question.ID.Hex(),
		"upvotes":     question.Upvotes,
	})

	return question, nil
}

func (s *questionService) AnswerQuestion(ctx context.Context, questionID, userID, role string, req *models.AnswerQuestionRequest) (*models.Question, error) {

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if role != "organizer" {
		return nil, models.Forbidden("only an organizer may answer questions")
	}

	if strings.TrimSpace(req.Answer) == "" {
		return nil, models.InvalidInput("answer must not be empty")
	}

	if err := s.questionRepo.SetAnswer(ctx, question.ID, req.Answer, userID); err != nil {
		return nil, models.Internal("failed to store answer", err)
	}
	question.IsAnswered = true
	question.Answer = req.Answer
	question.AnsweredBy = userID

	s.broadcaster.Emit(EventRoom(question.EventID.Hex()), EventQuestionAnswered, redactAuthor(question))

	return question, nil
}

func (s *questionService) StarQuestion(ctx context.Context, questionID, userID, role string) (*models.Question, error) {

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if role != "organizer" {
		return nil, models.Forbidden("only an organizer may star questions")
	}

	starred := !question.IsStarred
	if err := s.questionRepo.SetStarred(ctx, question.ID, starred); err != nil {
		return nil, models.Internal("failed to star question", err)
	}
	question.IsStarred = starred

	s.broadcaster.Emit(EventRoom(question.EventID.Hex()), EventQuestionStarred, map[string]interface{}{
		"question_id": question.ID.Hex(),
		"is_starred":  starred,
	})

	return question, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, questionID, userID, role string) error {

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}

	if question.AuthorID != userID && role != "organizer" {
		return models.Forbidden("only the author or an organizer may delete a question")
	}

	if err := s.questionRepo.DeleteQuestion(ctx, question.ID); err != nil {
		return models.Internal("failed to delete question", err)
	}
	if _, err := s.questionRepo.DeleteVotesByQuestionID(ctx, question.ID); err != nil {
		return models.Internal("failed to delete question votes", err)
	}

	return nil
}

func (s *questionService) getQuestion(ctx context.Context, questionID string) (*models.Question, error) {

	objectID, err := primitive.ObjectIDFromHex(questionID)
	if err != nil {
		return nil, models.InvalidInput("invalid question id")
	}

	question, err := s.questionRepo.GetQuestionByID(ctx, objectID)
	if err != nil {
		return nil, models.Internal("failed to load question", err)
	}
	if question == nil {
		return nil, models.NotFound("question not found")
	}

	return question, nil
}
