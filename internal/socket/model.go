package socket

// ClientCommand is the inbound wire format. Connections manage their own room
// memberships with explicit join/leave actions; after a reconnect the client
// re-joins and re-fetches current state, there is no replay.
type ClientCommand struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

const (
	actionJoin  = "join"
	actionLeave = "leave"
	actionPing  = "ping"
)

// Envelope is the outbound wire format for every fanned-out event.
type Envelope struct {
	Event string      `json:"event"`
	Room  string      `json:"room"`
	Data  interface{} `json:"data,omitempty"`
}

// OnlineUpdate announces the current member count of a room after a join or
// leave.
type OnlineUpdate struct {
	Room        string `json:"room"`
	OnlineCount int    `json:"online_count"`
}
