package service

// Event names on the wire. Clients match these strings exactly.
const (
	EventPollCreated = "poll-created"
	EventPollUpdated = "poll-updated"
	EventPollEnded   = "poll-ended"

	EventDiscussionAdded   = "forum-discussion-added"
	EventDiscussionUpdated = "forum-discussion-updated"
	EventDiscussionDeleted = "forum-discussion-deleted"
	EventReplyAdded        = "forum-reply-added"
	EventReplyUpdated      = "forum-reply-updated"
	EventReplyDeleted      = "forum-reply-deleted"
	EventReactionAdded     = "forum-reaction-added"

	EventQuestionAdded    = "question-added"
	EventQuestionVoted    = "question-voted"
	EventQuestionAnswered = "question-answered"
	EventQuestionStarred  = "question-starred"

	EventNewMessage      = "new-message"
	EventMessageEdited   = "message-edited"
	EventMessageDeleted  = "message-deleted"
	EventMessageReaction = "message-reaction"
)

// Broadcaster fans a named event out to every connection in a room. Delivery
// is best-effort and never fails the mutation that triggered it; services
// call Emit exactly once per mutating operation.
type Broadcaster interface {
	Emit(roomKey, eventName string, payload interface{})
}

// EventRoom is the room key for event-scoped features.
func EventRoom(eventID string) string {
	return "event-" + eventID
}

// ChatRoom is the room key for a two-party chat. The pair is sorted so either
// participant joining independently converges on the same room.
func ChatRoom(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return "chat-" + userA + "-" + userB
}
