package constants

type contextKey string

const (
	Token  = "token"
	UserID = "user_id"
	Role   = "role"

	TokenKey contextKey = "token"
)

const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
)
