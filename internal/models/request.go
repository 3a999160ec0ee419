package models

type CreatePollRequest struct {
	EventID       string   `json:"event_id"`
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allow_multiple"`
	IsAnonymous   bool     `json:"is_anonymous"`
	TimeLimit     int      `json:"time_limit"`
}

type VoteRequest struct {
	SelectedOptions []int  `json:"selected_options,omitempty"`
	Rating          int    `json:"rating,omitempty"`
	TextResponse    string `json:"text_response,omitempty"`
}

type CreateDiscussionRequest struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateDiscussionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type CreateReplyRequest struct {
	ParentReplyID string `json:"parent_reply_id,omitempty"`
	Content       string `json:"content"`
}

type ReactionRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	React      string `json:"react"`
}

type CreateQuestionRequest struct {
	EventID     string `json:"event_id"`
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type AnswerQuestionRequest struct {
	Answer string `json:"answer"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

type MessageReactionRequest struct {
	React string `json:"react"`
}
