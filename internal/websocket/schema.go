package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer  Action = "answer"
	ActionAdvance Action = "advance"
	ActionNext    Action = "next"
	ActionRetreat Action = "retreat"
	ActionSubmit  Action = "submit"
	ActionReset   Action = "reset"
	ActionPing    Action = "ping"
)

// RequestPayload is every client message. QuestionID and ChoiceIndex are
// only read for ActionAnswer.
type RequestPayload struct {
	Action      Action `json:"action"`
	QuestionID  string `json:"question_id,omitempty"`
	ChoiceIndex *int   `json:"choice_index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// ResponsePayload is every server message.
type ResponsePayload struct {
	Event Event             `json:"event"`
	Data  interface{}       `json:"data,omitempty"`
	Error string            `json:"error,omitempty"`
	Code  string            `json:"code,omitempty"`
	Field map[string]string `json:"fields,omitempty"`
}
