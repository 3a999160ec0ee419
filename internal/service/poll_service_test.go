package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"engage-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakePollRepo struct {
	mu    sync.Mutex
	polls map[primitive.ObjectID]*models.Poll
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[primitive.ObjectID]*models.Poll)}
}

func (r *fakePollRepo) InsertPoll(_ context.Context, poll *models.Poll) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *poll
	stored.ID = id
	r.polls[id] = &stored
	return id, nil
}

func (r *fakePollRepo) GetPollByID(_ context.Context, pollID primitive.ObjectID) (*models.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[pollID]
	if !ok {
		return nil, nil
	}
	copy := *poll
	return &copy, nil
}

func (r *fakePollRepo) GetPollsByEventID(_ context.Context, eventID primitive.ObjectID) ([]*models.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Poll
	for _, poll := range r.polls {
		if poll.EventID == eventID {
			copy := *poll
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakePollRepo) SetActive(_ context.Context, pollID primitive.ObjectID, startTime time.Time, endTime *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll := r.polls[pollID]
	poll.IsActive = true
	poll.StartTime = &startTime
	poll.EndTime = endTime
	return nil
}

func (r *fakePollRepo) SetEnded(_ context.Context, pollID primitive.ObjectID, endTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll := r.polls[pollID]
	poll.IsActive = false
	poll.EndTime = &endTime
	return nil
}

func (r *fakePollRepo) ReplaceTally(_ context.Context, pollID primitive.ObjectID, results []models.PollResult, totalVotes, uniqueVoters int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll := r.polls[pollID]
	poll.Results = results
	poll.TotalVotes = totalVotes
	poll.UniqueVoters = uniqueVoters
	return nil
}

func (r *fakePollRepo) DeletePoll(_ context.Context, pollID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.polls, pollID)
	return nil
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[string]*models.PollResponse

	// next InsertResponse fails with a duplicate-key error, simulating a
	// racing insert that beat us to the unique index
	failNextInsert bool
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[string]*models.PollResponse)}
}

func responseKey(pollID primitive.ObjectID, voterID string) string {
	return pollID.Hex() + "/" + voterID
}

func (r *fakeResponseRepo) InsertResponse(_ context.Context, response *models.PollResponse) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextInsert {
		r.failNextInsert = false
		return primitive.NilObjectID, mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{Code: 11000}},
		}
	}
	key := responseKey(response.PollID, response.VoterID)
	if _, exists := r.responses[key]; exists {
		return primitive.NilObjectID, mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{Code: 11000}},
		}
	}
	id := primitive.NewObjectID()
	stored := *response
	stored.ID = id
	r.responses[key] = &stored
	return id, nil
}

func (r *fakeResponseRepo) UpdateResponse(_ context.Context, pollID primitive.ObjectID, voterID string, payload models.ResponsePayload, submittedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := responseKey(pollID, voterID)
	existing, ok := r.responses[key]
	if !ok {
		// the racing writer's row; materialize it the way an upsert would
		existing = &models.PollResponse{
			ID:      primitive.NewObjectID(),
			PollID:  pollID,
			VoterID: voterID,
		}
		r.responses[key] = existing
	}
	existing.Response = payload
	existing.SubmittedAt = submittedAt
	return nil
}

func (r *fakeResponseRepo) GetResponse(_ context.Context, pollID primitive.ObjectID, voterID string) (*models.PollResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	response, ok := r.responses[responseKey(pollID, voterID)]
	if !ok {
		return nil, nil
	}
	copy := *response
	return &copy, nil
}

func (r *fakeResponseRepo) GetResponsesByPollID(_ context.Context, pollID primitive.ObjectID) ([]*models.PollResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PollResponse
	for _, response := range r.responses {
		if response.PollID == pollID {
			copy := *response
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) DeleteResponsesByPollID(_ context.Context, pollID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, response := range r.responses {
		if response.PollID == pollID {
			delete(r.responses, key)
			deleted++
		}
	}
	return deleted, nil
}

type recordedEmit struct {
	Room    string
	Event   string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (b *fakeBroadcaster) Emit(roomKey, eventName string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emits = append(b.emits, recordedEmit{Room: roomKey, Event: eventName, Payload: payload})
}

func (b *fakeBroadcaster) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.emits))
	for i, e := range b.emits {
		out[i] = e.Event
	}
	return out
}

type pollFixture struct {
	svc         *pollService
	pollRepo    *fakePollRepo
	respRepo    *fakeResponseRepo
	broadcaster *fakeBroadcaster
	clock       time.Time
}

func newPollFixture(t *testing.T) *pollFixture {
	t.Helper()
	f := &pollFixture{
		pollRepo:    newFakePollRepo(),
		respRepo:    newFakeResponseRepo(),
		broadcaster: &fakeBroadcaster{},
		clock:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewPollService(f.pollRepo, f.respRepo, f.broadcaster).(*pollService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *pollFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *pollFixture) createActivePoll(t *testing.T, req *models.CreatePollRequest) *models.Poll {
	t.Helper()
	ctx := context.Background()
	poll, err := f.svc.CreatePoll(ctx, "creator", req)
	require.NoError(t, err)
	activated, err := f.svc.ActivatePoll(ctx, poll.ID.Hex(), "creator", "participant")
	require.NoError(t, err)
	return activated
}

func singleChoiceRequest() *models.CreatePollRequest {
	return &models.CreatePollRequest{
		EventID:  primitive.NewObjectID().Hex(),
		Question: "Which track?",
		Type:     models.PollTypeSingleChoice,
		Options:  []string{"Red", "Blue"},
	}
}

func TestCreatePollValidation(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *models.CreatePollRequest
	}{
		{"empty question", &models.CreatePollRequest{
			EventID: primitive.NewObjectID().Hex(), Question: "  ",
			Type: models.PollTypeSingleChoice, Options: []string{"A", "B"},
		}},
		{"one option", &models.CreatePollRequest{
			EventID: primitive.NewObjectID().Hex(), Question: "Q",
			Type: models.PollTypeSingleChoice, Options: []string{"A"},
		}},
		{"options on rating poll", &models.CreatePollRequest{
			EventID: primitive.NewObjectID().Hex(), Question: "Q",
			Type: models.PollTypeRating, Options: []string{"A", "B"},
		}},
		{"unknown type", &models.CreatePollRequest{
			EventID: primitive.NewObjectID().Hex(), Question: "Q", Type: "ranked",
		}},
		{"negative time limit", &models.CreatePollRequest{
			EventID: primitive.NewObjectID().Hex(), Question: "Q",
			Type: models.PollTypeText, TimeLimit: -5,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreatePoll(ctx, "creator", tc.req)
			require.Error(t, err)
			assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
		})
	}
}

func TestCreatePollStartsDraft(t *testing.T) {
	f := newPollFixture(t)

	poll, err := f.svc.CreatePoll(context.Background(), "creator", singleChoiceRequest())
	require.NoError(t, err)

	assert.False(t, poll.IsActive)
	assert.Nil(t, poll.StartTime)
	assert.Len(t, poll.Results, 2)
	assert.Equal(t, []string{EventPollCreated}, f.broadcaster.events())
}

func TestActivatePollPermissions(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll, err := f.svc.CreatePoll(ctx, "creator", singleChoiceRequest())
	require.NoError(t, err)

	_, err = f.svc.ActivatePoll(ctx, poll.ID.Hex(), "stranger", "participant")
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	// an organizer who is not the creator may activate
	activated, err := f.svc.ActivatePoll(ctx, poll.ID.Hex(), "someone-else", "organizer")
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
}

func TestActivatePollSetsEndTimeFromTimeLimit(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	req := singleChoiceRequest()
	req.TimeLimit = 10
	poll, err := f.svc.CreatePoll(ctx, "creator", req)
	require.NoError(t, err)

	activated, err := f.svc.ActivatePoll(ctx, poll.ID.Hex(), "creator", "participant")
	require.NoError(t, err)

	require.NotNil(t, activated.EndTime)
	assert.Equal(t, f.clock.Add(10*time.Minute), *activated.EndTime)
}

func TestEndedPollNeverReactivates(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())

	_, err := f.svc.DeactivatePoll(ctx, poll.ID.Hex(), "creator", "organizer")
	require.NoError(t, err)

	_, err = f.svc.ActivatePoll(ctx, poll.ID.Hex(), "creator", "organizer")
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
}

func TestSubmitVoteTallies(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())

	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)
	updated, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "bob", models.ResponsePayload{SelectedOptions: []int{1}})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.TotalVotes)
	assert.Equal(t, 2, updated.UniqueVoters)
	assert.Equal(t, 1, updated.Results[0].Votes)
	assert.Equal(t, 1, updated.Results[1].Votes)
}

func TestSubmitVoteRevoteReplacesBallot(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())

	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)
	updated, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{1}})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.TotalVotes)
	assert.Equal(t, 1, updated.UniqueVoters)
	assert.Equal(t, 0, updated.Results[0].Votes)
	assert.Equal(t, 1, updated.Results[1].Votes)
}

func TestSubmitVoteDuplicateKeyBecomesUpdate(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())
	f.respRepo.failNextInsert = true

	updated, response, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.TotalVotes)
	assert.Equal(t, 1, updated.UniqueVoters)

	// the retried-as-update path must hand back the stored row, not the
	// insert attempt that never got an id
	require.NotNil(t, response)
	assert.False(t, response.ID.IsZero())
	assert.Equal(t, []int{0}, response.Response.SelectedOptions)
}

func TestSubmitVoteRejectsInactivePoll(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll, err := f.svc.CreatePoll(ctx, "creator", singleChoiceRequest())
	require.NoError(t, err)

	_, _, err = f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
}

func TestSubmitVoteExpiresStalePoll(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	req := singleChoiceRequest()
	req.TimeLimit = 1
	poll := f.createActivePoll(t, req)

	f.advance(61 * time.Second)

	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))

	stored, err := f.pollRepo.GetPollByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "expired poll should flip to ended")
	assert.Contains(t, f.broadcaster.events(), EventPollEnded)
}

func TestSubmitVoteValidation(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())

	cases := []struct {
		name    string
		payload models.ResponsePayload
	}{
		{"no options", models.ResponsePayload{}},
		{"two options on single choice", models.ResponsePayload{SelectedOptions: []int{0, 1}}},
		{"out of range", models.ResponsePayload{SelectedOptions: []int{7}}},
		{"negative index", models.ResponsePayload{SelectedOptions: []int{-1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", tc.payload)
			require.Error(t, err)
			assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
		})
	}
}

func TestSubmitVoteMultipleChoiceAllowMultipleOff(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	req := singleChoiceRequest()
	req.Type = models.PollTypeMultipleChoice
	req.AllowMultiple = false
	poll := f.createActivePoll(t, req)

	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0, 1}})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, _, err = f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{1}})
	assert.NoError(t, err)
}

func TestDeletePollCascadesResponses(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())
	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePoll(ctx, poll.ID.Hex(), "creator", "participant"))

	remaining, err := f.respRepo.GetResponsesByPollID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeletePollForbiddenForOthers(t *testing.T) {
	f := newPollFixture(t)

	poll := f.createActivePoll(t, singleChoiceRequest())

	err := f.svc.DeletePoll(context.Background(), poll.ID.Hex(), "stranger", "participant")
	assert.Equal(t, models.KindForbidden, models.KindOf(err))
}

func TestGetEventPollsFlipsExpired(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	req := singleChoiceRequest()
	req.TimeLimit = 1
	poll := f.createActivePoll(t, req)

	f.advance(2 * time.Minute)

	polls, err := f.svc.GetEventPolls(ctx, poll.EventID.Hex())
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.False(t, polls[0].IsActive)
}

func TestGetPollAnalyticsPercentages(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, singleChoiceRequest())
	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)
	_, _, err = f.svc.SubmitVote(ctx, poll.ID.Hex(), "bob", models.ResponsePayload{SelectedOptions: []int{0}})
	require.NoError(t, err)
	_, _, err = f.svc.SubmitVote(ctx, poll.ID.Hex(), "carol", models.ResponsePayload{SelectedOptions: []int{1}})
	require.NoError(t, err)

	analytics, err := f.svc.GetPollAnalytics(ctx, poll.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 3, analytics.TotalVotes)
	assert.Equal(t, 3, analytics.UniqueVoters)
	assert.Equal(t, "Red", analytics.Results[0].Label)
	assert.InDelta(t, 66.6, analytics.Results[0].Percentage, 0.1)
	assert.InDelta(t, 33.3, analytics.Results[1].Percentage, 0.1)
}

func TestGetTextResponsesAnonymized(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	req := &models.CreatePollRequest{
		EventID:     primitive.NewObjectID().Hex(),
		Question:    "Feedback?",
		Type:        models.PollTypeText,
		IsAnonymous: true,
	}
	poll := f.createActivePoll(t, req)

	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice", models.ResponsePayload{TextResponse: "loved it"})
	require.NoError(t, err)

	responses, err := f.svc.GetTextResponses(ctx, poll.ID.Hex())
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Empty(t, responses[0].VoterID)
	assert.Equal(t, "loved it", responses[0].Response.TextResponse)
}

func TestGetTextResponsesWrongType(t *testing.T) {
	f := newPollFixture(t)

	poll := f.createActivePoll(t, singleChoiceRequest())

	_, err := f.svc.GetTextResponses(context.Background(), poll.ID.Hex())
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
}

func TestPollNotFound(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetPollAnalytics(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = f.svc.GetPollAnalytics(ctx, "not-an-id")
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}

func TestTextResponseLimitCountsRunes(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	poll := f.createActivePoll(t, &models.CreatePollRequest{
		EventID:  primitive.NewObjectID().Hex(),
		Question: "Feedback?",
		Type:     models.PollTypeText,
	})

	// 1000 two-byte characters are within the limit even though the byte
	// length is double it
	_, _, err := f.svc.SubmitVote(ctx, poll.ID.Hex(), "alice",
		models.ResponsePayload{TextResponse: strings.Repeat("é", maxTextResponseLength)})
	require.NoError(t, err)

	_, _, err = f.svc.SubmitVote(ctx, poll.ID.Hex(), "bob",
		models.ResponsePayload{TextResponse: strings.Repeat("é", maxTextResponseLength+1)})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}
