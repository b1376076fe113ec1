package quiz

import (
	"errors"
	"fmt"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// Event is an input that may change a session.
type Event string

const (
	EventAnswer  Event = "answer"
	EventAdvance Event = "advance"
	EventRetreat Event = "retreat"
	EventSubmit  Event = "submit"
)

var (
	// ErrIllegalTransition is returned for events the current state does not accept.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrReviewDisabled is returned by Retreat when back-navigation is turned off.
	ErrReviewDisabled = fmt.Errorf("%w: review before submit is disabled", ErrIllegalTransition)

	ErrUnknownQuestion  = errors.New("question is not part of this session")
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	ErrAnswerType       = errors.New("answer type does not match question type")
)

// transitions lists every accepted event per state. SUBMITTED accepts nothing;
// leaving it requires a reset, which builds a new machine.
var transitions = map[model.SessionStatus]map[Event]model.SessionStatus{
	model.SessionStatusInProgress: {
		EventAnswer:  model.SessionStatusInProgress,
		EventAdvance: model.SessionStatusInProgress,
		EventRetreat: model.SessionStatusInProgress,
		EventSubmit:  model.SessionStatusSubmitted,
	},
	model.SessionStatusSubmitted: {},
}

// Transition returns the state reached by applying ev in from.
func Transition(from model.SessionStatus, ev Event) (model.SessionStatus, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}
