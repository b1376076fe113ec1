package model

// SessionStatus enumerates session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
)

// TagStat is the per-tag correct/total tally produced at submission.
type TagStat struct {
	Count   int `json:"count"`
	Correct int `json:"correct"`
}

// SessionState is the persisted record of one quiz attempt.
// StartedAt and EndsAt are epoch milliseconds and stay nil when the quiz has no time limit.
type SessionState struct {
	AttemptID   string             `json:"attemptId,omitempty"`
	Order       []string           `json:"order"`
	OptionOrder map[string][]int   `json:"optionOrder,omitempty"`
	Answers     map[string]Answer  `json:"answers"`
	Current     int                `json:"current"`
	StartedAt   *int64             `json:"startedAt"`
	EndsAt      *int64             `json:"endsAt"`
	Submitted   bool               `json:"submitted"`
	SubmittedAt *int64             `json:"submittedAt,omitempty"`
	Score       int                `json:"score"`
	TagStats    map[string]TagStat `json:"tagStats"`
}

// NewSessionState returns the defaults a restored state is merged over.
func NewSessionState() *SessionState {
	return &SessionState{
		Order:    []string{},
		Answers:  map[string]Answer{},
		TagStats: map[string]TagStat{},
	}
}

// Status maps the submitted flag onto a named state.
func (s *SessionState) Status() SessionStatus {
	if s.Submitted {
		return SessionStatusSubmitted
	}
	return SessionStatusInProgress
}

// Clone returns a deep copy so callers can render without holding the owner's lock.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Order = append([]string(nil), s.Order...)
	if s.OptionOrder != nil {
		c.OptionOrder = make(map[string][]int, len(s.OptionOrder))
		for k, v := range s.OptionOrder {
			c.OptionOrder[k] = append([]int(nil), v...)
		}
	}
	c.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.TagStats = make(map[string]TagStat, len(s.TagStats))
	for k, v := range s.TagStats {
		c.TagStats[k] = v
	}
	if s.StartedAt != nil {
		v := *s.StartedAt
		c.StartedAt = &v
	}
	if s.EndsAt != nil {
		v := *s.EndsAt
		c.EndsAt = &v
	}
	if s.SubmittedAt != nil {
		v := *s.SubmittedAt
		c.SubmittedAt = &v
	}
	return &c
}
