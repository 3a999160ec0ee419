package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"engage-service/internal/metrics"
	"engage-service/internal/models"
	"engage-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxTextResponseLength = 1000

type PollService interface {
	CreatePoll(ctx context.Context, creatorID string, req *models.CreatePollRequest) (*models.Poll, error)
	GetEventPolls(ctx context.Context, eventID string) ([]*models.Poll, error)
	ActivatePoll(ctx context.Context, pollID, userID, role string) (*models.Poll, error)
	DeactivatePoll(ctx context.Context, pollID, userID, role string) (*models.Poll, error)
	SubmitVote(ctx context.Context, pollID, voterID string, payload models.ResponsePayload) (*models.Poll, *models.PollResponse, error)
	DeletePoll(ctx context.Context, pollID, userID, role string) error
	GetPollAnalytics(ctx context.Context, pollID string) (*models.PollAnalytics, error)
	GetTextResponses(ctx context.Context, pollID string) ([]*models.PollResponse, error)
}

type pollService struct {
	pollRepo     repository.PollRepository
	responseRepo repository.PollResponseRepository
	broadcaster  Broadcaster

	// serializes recompute+write per poll inside this process
	tallyLocks map[string]*sync.Mutex
	locksMu    sync.Mutex

	now func() time.Time
}

func NewPollService(pollRepo repository.PollRepository,
	responseRepo repository.PollResponseRepository,
	broadcaster Broadcaster) PollService {
	return &pollService{
		pollRepo:     pollRepo,
		responseRepo: responseRepo,
		broadcaster:  broadcaster,
		tallyLocks:   make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

func (s *pollService) CreatePoll(ctx context.Context, creatorID string, req *models.CreatePollRequest) (*models.Poll, error) {

	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		return nil, models.InvalidInput("invalid event id")
	}

	if strings.TrimSpace(req.Question) == "" {
		return nil, models.InvalidInput("question must not be empty")
	}

	switch req.Type {
	case models.PollTypeSingleChoice, models.PollTypeMultipleChoice:
		if len(req.Options) < 2 {
			return nil, models.InvalidInput("choice polls need at least two options")
		}
	case models.PollTypeRating, models.PollTypeText:
		if len(req.Options) > 0 {
			return nil, models.InvalidInput("options are only valid for choice polls")
		}
	default:
		return nil, models.InvalidInput("unknown poll type")
	}

	if req.TimeLimit < 0 {
		return nil, models.InvalidInput("time limit must not be negative")
	}

	now := s.now()
	poll := &models.Poll{
		EventID:       eventID,
		CreatorID:     creatorID,
		Question:      req.Question,
		Type:          req.Type,
		Options:       req.Options,
		AllowMultiple: req.AllowMultiple,
		IsAnonymous:   req.IsAnonymous,
		IsActive:      false,
		TimeLimit:     req.TimeLimit,
		CreatedAt:     now,
		UpdateAt:      now,
	}
	poll.InitializeResults()

	id, err := s.pollRepo.InsertPoll(ctx, poll)
	if err != nil {
		return nil, models.Internal("failed to create poll", err)
	}
	poll.ID = id

	s.broadcaster.Emit(EventRoom(req.EventID), EventPollCreated, poll)

	return poll, nil
}

// GetEventPolls returns an event's polls, flipping any whose end time has
// passed to ended before they go out.
func (s *pollService) GetEventPolls(ctx context.Context, eventID string) ([]*models.Poll, error) {

	objectEventID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.InvalidInput("invalid event id")
	}

	polls, err := s.pollRepo.GetPollsByEventID(ctx, objectEventID)
	if err != nil {
		return nil, models.Internal("failed to list polls", err)
	}

	now := s.now()
	for _, poll := range polls {
		if poll.IsActive && poll.Expired(now) {
			if err := s.expirePoll(ctx, poll); err != nil {
				return nil, err
			}
		}
	}

	return polls, nil
}

func (s *pollService) ActivatePoll(ctx context.Context, pollID, userID, role string) (*models.Poll, error) {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if poll.CreatorID != userID && role != "organizer" {
		return nil, models.Forbidden("only the poll creator or an organizer may activate a poll")
	}

	if poll.IsActive {
		return nil, models.InvalidState("poll is already active")
	}
	if poll.StartTime != nil {
		// once ended a poll never reactivates; organizers create a new one
		return nil, models.InvalidState("poll has already ended")
	}

	now := s.now()
	var endTime *time.Time
	if poll.TimeLimit > 0 {
		t := now.Add(time.Duration(poll.TimeLimit) * time.Minute)
		endTime = &t
	}

	if err := s.pollRepo.SetActive(ctx, poll.ID, now, endTime); err != nil {
		return nil, models.Internal("failed to activate poll", err)
	}

	poll.IsActive = true
	poll.StartTime = &now
	poll.EndTime = endTime

	s.broadcaster.Emit(EventRoom(poll.EventID.Hex()), EventPollUpdated, pollUpdatePayload(poll))

	return poll, nil
}

func (s *pollService) DeactivatePoll(ctx context.Context, pollID, userID, role string) (*models.Poll, error) {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if role != "organizer" {
		return nil, models.Forbidden("only an organizer may deactivate a poll")
	}

	if !poll.IsActive {
		return nil, models.InvalidState("poll is not active")
	}

	now := s.now()
	if err := s.pollRepo.SetEnded(ctx, poll.ID, now); err != nil {
		return nil, models.Internal("failed to deactivate poll", err)
	}

	poll.IsActive = false
	poll.EndTime = &now

	s.broadcaster.Emit(EventRoom(poll.EventID.Hex()), EventPollEnded, map[string]interface{}{
		"poll_id": poll.ID.Hex(),
	})

	return poll, nil
}

// SubmitVote accepts or updates a voter's ballot and recomputes the tally.
// Preconditions are checked in order, first failure wins.
func (s *pollService) SubmitVote(ctx context.Context, pollID, voterID string, payload models.ResponsePayload) (*models.Poll, *models.PollResponse, error) {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, nil, err
	}

	if !poll.IsActive {
		return nil, nil, models.InvalidState("poll not active")
	}

	if poll.Expired(s.now()) {
		// flip the stale poll as a side effect of the failed attempt
		if err := s.expirePoll(ctx, poll); err != nil {
			return nil, nil, err
		}
		return nil, nil, models.InvalidState("poll expired")
	}

	if err := validatePayload(poll, payload); err != nil {
		return nil, nil, err
	}

	now := s.now()
	existing, err := s.responseRepo.GetResponse(ctx, poll.ID, voterID)
	if err != nil {
		return nil, nil, models.Internal("failed to look up response", err)
	}

	var response *models.PollResponse
	if existing != nil {
		if err := s.responseRepo.UpdateResponse(ctx, poll.ID, voterID, payload, now); err != nil {
			return nil, nil, models.Internal("failed to update response", err)
		}
		existing.Response = payload
		existing.SubmittedAt = now
		response = existing
	} else {
		response = &models.PollResponse{
			PollID:      poll.ID,
			EventID:     poll.EventID,
			VoterID:     voterID,
			Response:    payload,
			IsAnonymous: poll.IsAnonymous,
			SubmittedAt: now,
		}
		id, err := s.responseRepo.InsertResponse(ctx, response)
		if err != nil {
			if !repository.IsDuplicateKey(err) {
				return nil, nil, models.Internal("failed to insert response", err)
			}
			// lost the race against the voter's own first vote; the
			// uniqueness constraint redirects the insert into an update
			if err := s.responseRepo.UpdateResponse(ctx, poll.ID, voterID, payload, now); err != nil {
				return nil, nil, models.Internal("failed to update response", err)
			}
			stored, err := s.responseRepo.GetResponse(ctx, poll.ID, voterID)
			if err != nil {
				return nil, nil, models.Internal("failed to look up response", err)
			}
			if stored != nil {
				response = stored
			}
		} else {
			response.ID = id
		}
	}

	if err := s.recomputeTally(ctx, poll); err != nil {
		return nil, nil, err
	}

	metrics.VotesSubmitted.WithLabelValues(poll.Type).Inc()

	// aggregate only, never individual ballots
	s.broadcaster.Emit(EventRoom(poll.EventID.Hex()), EventPollUpdated, pollUpdatePayload(poll))

	return poll, response, nil
}

func (s *pollService) DeletePoll(ctx context.Context, pollID, userID, role string) error {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if poll.CreatorID != userID && role != "organizer" {
		return models.Forbidden("only the poll creator or an organizer may delete a poll")
	}

	if err := s.pollRepo.DeletePoll(ctx, poll.ID); err != nil {
		return models.Internal("failed to delete poll", err)
	}

	// cascade: no orphaned responses
	if _, err := s.responseRepo.DeleteResponsesByPollID(ctx, poll.ID); err != nil {
		return models.Internal("failed to delete poll responses", err)
	}

	s.broadcaster.Emit(EventRoom(poll.EventID.Hex()), EventPollEnded, map[string]interface{}{
		"poll_id": poll.ID.Hex(),
		"deleted": true,
	})

	return nil
}

func (s *pollService) GetPollAnalytics(ctx context.Context, pollID string) (*models.PollAnalytics, error) {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.GetResponsesByPollID(ctx, poll.ID)
	if err != nil {
		return nil, models.Internal("failed to load responses", err)
	}

	results, totalVotes, uniqueVoters := ComputeResults(poll, responses)

	details := make([]models.PollResultDetail, len(results))
	for i, r := range results {
		detail := models.PollResultDetail{
			OptionIndex: r.OptionIndex,
			Rating:      r.Rating,
			Votes:       r.Votes,
		}
		if r.Rating == 0 && r.OptionIndex < len(poll.Options) {
			detail.Label = poll.Options[r.OptionIndex]
		}
		if totalVotes > 0 {
			detail.Percentage = float64(r.Votes) / float64(totalVotes) * 100
		}
		details[i] = detail
	}

	return &models.PollAnalytics{
		PollID:       poll.ID.Hex(),
		Question:     poll.Question,
		Type:         poll.Type,
		IsActive:     poll.IsActive,
		Results:      details,
		TotalVotes:   totalVotes,
		UniqueVoters: uniqueVoters,
	}, nil
}

// GetTextResponses lists the bodies submitted to a text poll. They are never
// tallied into buckets.
func (s *pollService) GetTextResponses(ctx context.Context, pollID string) ([]*models.PollResponse, error) {

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if poll.Type != models.PollTypeText {
		return nil, models.InvalidState("poll has no text responses")
	}

	responses, err := s.responseRepo.GetResponsesByPollID(ctx, poll.ID)
	if err != nil {
		return nil, models.Internal("failed to load responses", err)
	}

	if poll.IsAnonymous {
		for _, resp := range responses {
			resp.VoterID = ""
		}
	}

	return responses, nil
}

func (s *pollService) getPoll(ctx context.Context, pollID string) (*models.Poll, error) {

	objectID, err := primitive.ObjectIDFromHex(pollID)
	if err != nil {
		return nil, models.InvalidInput("invalid poll id")
	}

	poll, err := s.pollRepo.GetPollByID(ctx, objectID)
	if err != nil {
		return nil, models.Internal("failed to load poll", err)
	}
	if poll == nil {
		return nil, models.NotFound("poll not found")
	}

	return poll, nil
}

func (s *pollService) expirePoll(ctx context.Context, poll *models.Poll) error {

	if err := s.pollRepo.SetEnded(ctx, poll.ID, *poll.EndTime); err != nil {
		return models.Internal("failed to expire poll", err)
	}
	poll.IsActive = false

	s.broadcaster.Emit(EventRoom(poll.EventID.Hex()), EventPollEnded, map[string]interface{}{
		"poll_id": poll.ID.Hex(),
	})

	return nil
}

// recomputeTally reads the complete current response set and replaces the
// stored tally wholesale. Runs for the same poll serialize on a per-poll
// mutex; two polls never contend. Cross-process write ordering is still not
// guaranteed to match submission order, which is accepted: the next vote's
// recompute reads a superset of responses and heals a stale write.
func (s *pollService) recomputeTally(ctx context.Context, poll *models.Poll) error {

	lock := s.tallyLock(poll.ID.Hex())
	lock.Lock()
	defer lock.Unlock()

	responses, err := s.responseRepo.GetResponsesByPollID(ctx, poll.ID)
	if err != nil {
		return models.Internal("failed to load responses", err)
	}

	results, totalVotes, uniqueVoters := ComputeResults(poll, responses)

	if err := s.pollRepo.ReplaceTally(ctx, poll.ID, results, totalVotes, uniqueVoters); err != nil {
		return models.Internal("failed to store tally", err)
	}

	poll.Results = results
	poll.TotalVotes = totalVotes
	poll.UniqueVoters = uniqueVoters

	return nil
}

func (s *pollService) tallyLock(pollID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.tallyLocks[pollID]
	if !ok {
		lock = &sync.Mutex{}
		s.tallyLocks[pollID] = lock
	}
	return lock
}

func validatePayload(poll *models.Poll, payload models.ResponsePayload) error {

	switch poll.Type {
	case models.PollTypeSingleChoice:
		if len(payload.SelectedOptions) != 1 {
			return models.InvalidInput("single choice polls take exactly one option")
		}
	case models.PollTypeMultipleChoice:
		if len(payload.SelectedOptions) == 0 {
			return models.InvalidInput("select at least one option")
		}
		if !poll.AllowMultiple && len(payload.SelectedOptions) != 1 {
			return models.InvalidInput("this poll takes exactly one option")
		}
	case models.PollTypeRating:
		if payload.Rating < 1 || payload.Rating > models.RatingScale {
			return models.InvalidInput("rating must be between 1 and 5")
		}
		return nil
	case models.PollTypeText:
		text := strings.TrimSpace(payload.TextResponse)
		if text == "" {
			return models.InvalidInput("text response must not be empty")
		}
		if utf8.RuneCountInString(payload.TextResponse) > maxTextResponseLength {
			return models.InvalidInput("text response too long")
		}
		return nil
	default:
		return models.InvalidInput("unknown poll type")
	}

	seen := make(map[int]struct{}, len(payload.SelectedOptions))
	for _, idx := range payload.SelectedOptions {
		if idx < 0 || idx >= len(poll.Options) {
			return models.InvalidInput("option index out of range")
		}
		if _, dup := seen[idx]; dup {
			return models.InvalidInput("duplicate option index")
		}
		seen[idx] = struct{}{}
	}

	return nil
}

func pollUpdatePayload(poll *models.Poll) map[string]interface{} {
	return map[string]interface{}{
		"poll_id":     poll.ID.Hex(),
		"results":     poll.Results,
		"total_votes": poll.TotalVotes,
	}
}
