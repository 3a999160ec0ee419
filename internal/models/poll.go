package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PollTypeSingleChoice   = "single_choice"
	PollTypeMultipleChoice = "multiple_choice"
	PollTypeRating         = "rating"
	PollTypeText           = "text"
)

// RatingScale is the number of buckets a rating poll tallies (ratings 1..5).
const RatingScale = 5

type Poll struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	CreatorID     string             `bson:"creator_id" json:"creator_id"`
	Question      string             `bson:"question" json:"question"`
	Type          string             `bson:"type" json:"type"`
	Options       []string           `bson:"options" json:"options"`
	AllowMultiple bool               `bson:"allow_multiple" json:"allow_multiple"`
	IsAnonymous   bool               `bson:"is_anonymous" json:"is_anonymous"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	TimeLimit     int                `bson:"time_limit" json:"time_limit"`
	StartTime     *time.Time         `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime       *time.Time         `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Results       []PollResult       `bson:"results" json:"results"`
	TotalVotes    int                `bson:"total_votes" json:"total_votes"`
	UniqueVoters  int                `bson:"unique_voters" json:"unique_voters"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdateAt      time.Time          `bson:"update_at" json:"update_at"`
}

type PollResult struct {
	OptionIndex int `bson:"option_index" json:"option_index"`
	Rating      int `bson:"rating,omitempty" json:"rating,omitempty"`
	Votes       int `bson:"votes" json:"votes"`
}

// InitializeResults pre-populates the zero-tally shape for the poll's type:
// one entry per option for choice polls, one entry per rating 1..5 for rating
// polls, none for text polls. The shape never changes length afterwards.
func (p *Poll) InitializeResults() {
	switch p.Type {
	case PollTypeSingleChoice, PollTypeMultipleChoice:
		p.Results = make([]PollResult, len(p.Options))
		for i := range p.Options {
			p.Results[i] = PollResult{OptionIndex: i}
		}
	case PollTypeRating:
		p.Results = make([]PollResult, RatingScale)
		for i := 0; i < RatingScale; i++ {
			p.Results[i] = PollResult{Rating: i + 1}
		}
	default:
		p.Results = []PollResult{}
	}
}

// Expired reports whether the poll's end time exists and has passed.
func (p *Poll) Expired(now time.Time) bool {
	return p.EndTime != nil && !p.EndTime.After(now)
}

type PollResponse struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PollID      primitive.ObjectID `bson:"poll_id" json:"poll_id"`
	EventID     primitive.ObjectID `bson:"event_id" json:"event_id"`
	VoterID     string             `bson:"voter_id" json:"voter_id"`
	Response    ResponsePayload    `bson:"response" json:"response"`
	IsAnonymous bool               `bson:"is_anonymous" json:"is_anonymous"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
}

type ResponsePayload struct {
	SelectedOptions []int  `bson:"selected_options,omitempty" json:"selected_options,omitempty"`
	Rating          int    `bson:"rating,omitempty" json:"rating,omitempty"`
	TextResponse    string `bson:"text_response,omitempty" json:"text_response,omitempty"`
}

// PollAnalytics is the read model returned for a poll's tally, including
// per-option percentages over total votes.
type PollAnalytics struct {
	PollID       string             `json:"poll_id"`
	Question     string             `json:"question"`
	Type         string             `json:"type"`
	IsActive     bool               `json:"is_active"`
	Results      []PollResultDetail `json:"results"`
	TotalVotes   int                `json:"total_votes"`
	UniqueVoters int                `json:"unique_voters"`
}

type PollResultDetail struct {
	OptionIndex int     `json:"option_index"`
	Rating      int     `json:"rating,omitempty"`
	Label       string  `json:"label,omitempty"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
}
