// Package quiz implements the session state machine, the deadline timer and
// the scoring engine of the quiz runner.
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// Options are the behaviour switches of a session.
type Options struct {
	TimeLimit        time.Duration
	ShuffleQuestions bool
	ShuffleOptions   bool
	AllowReview      bool
}

// Option customises a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithRand sets the source used for question and option shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(m *Machine) { m.rng = rng }
}

// WithScorer replaces the scoring function.
func WithScorer(fn ScoreFunc) Option {
	return func(m *Machine) { m.score = fn }
}

// Machine owns one SessionState and applies events to it. It is not safe for
// concurrent use except for Submit, whose one-shot guard is atomic.
type Machine struct {
	bank     *bank.Bank
	opts     Options
	now      func() time.Time
	rng      *rand.Rand
	score    ScoreFunc
	state    *model.SessionState
	restored bool

	submitted atomic.Bool
}

// New initialises a machine. A structurally valid restored state is adopted,
// otherwise a fresh state is built. Order and deadline are only generated when
// missing, so a restored session keeps both.
func New(b *bank.Bank, opts Options, restored *model.SessionState, options ...Option) *Machine {
	m := &Machine{
		bank:  b,
		opts:  opts,
		now:   time.Now,
		score: Score,
	}
	for _, o := range options {
		o(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(m.now().UnixNano()))
	}

	st := model.NewSessionState()
	if ValidRestored(b, restored) {
		merge(st, restored)
		m.restored = true
	}

	if len(st.Order) == 0 {
		st.AttemptID = uuid.NewString()
		st.Order = b.IDs()
		if opts.ShuffleQuestions {
			st.Order = shuffledIDs(m.rng, st.Order)
		}
	}

	if opts.TimeLimit > 0 && st.EndsAt == nil {
		started := m.now().UnixMilli()
		ends := started + opts.TimeLimit.Milliseconds()
		st.StartedAt = &started
		st.EndsAt = &ends
	}

	if opts.ShuffleOptions {
		m.ensureOptionOrder(st)
	} else {
		st.OptionOrder = nil
	}

	st.Current = clamp(st.Current, 0, len(st.Order)-1)
	m.state = st
	m.submitted.Store(st.Submitted)
	return m
}

// ValidRestored reports whether st can be resumed against b: a non-empty order
// of distinct ids that all exist in the bank.
func ValidRestored(b *bank.Bank, st *model.SessionState) bool {
	if st == nil || len(st.Order) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(st.Order))
	for _, id := range st.Order {
		if _, dup := seen[id]; dup || !b.Has(id) {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// merge copies restored fields over the defaults in dst.
func merge(dst, src *model.SessionState) {
	dst.AttemptID = src.AttemptID
	dst.Order = append([]string(nil), src.Order...)
	if src.OptionOrder != nil {
		dst.OptionOrder = src.OptionOrder
	}
	if src.Answers != nil {
		dst.Answers = src.Answers
	}
	if src.TagStats != nil {
		dst.TagStats = src.TagStats
	}
	dst.Current = src.Current
	dst.StartedAt = src.StartedAt
	dst.EndsAt = src.EndsAt
	dst.Submitted = src.Submitted
	dst.SubmittedAt = src.SubmittedAt
	dst.Score = src.Score
}

func (m *Machine) ensureOptionOrder(st *model.SessionState) {
	if st.OptionOrder == nil {
		st.OptionOrder = make(map[string][]int, len(st.Order))
	}
	for _, id := range st.Order {
		q, _ := m.bank.Get(id)
		if q == nil || len(q.Options) == 0 {
			continue
		}
		if !isPermutation(st.OptionOrder[id], len(q.Options)) {
			st.OptionOrder[id] = optionPermutation(m.rng, len(q.Options))
		}
	}
}

func clamp(n, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Restored reports whether New adopted a persisted state.
func (m *Machine) Restored() bool { return m.restored }

// Options returns the switches the machine was built with.
func (m *Machine) Options() Options { return m.opts }

// Now reads the machine's clock.
func (m *Machine) Now() time.Time { return m.now() }

// Bank returns the question bank the session is graded against.
func (m *Machine) Bank() *bank.Bank { return m.bank }

// State returns a copy of the session state.
func (m *Machine) State() *model.SessionState { return m.state.Clone() }

// Status returns the named state of the session.
func (m *Machine) Status() model.SessionStatus {
	if m.submitted.Load() {
		return model.SessionStatusSubmitted
	}
	return model.SessionStatusInProgress
}

func (m *Machine) check(ev Event) error {
	_, err := Transition(m.Status(), ev)
	return err
}

// Current returns the index of the active question.
func (m *Machine) Current() int { return m.state.Current }

// IsLast reports whether the active question is the last in the order.
func (m *Machine) IsLast() bool { return m.state.Current == len(m.state.Order)-1 }

// CurrentQuestion returns the active question.
func (m *Machine) CurrentQuestion() (*model.Question, bool) {
	return m.bank.Get(m.state.Order[m.state.Current])
}

// Advance moves to the next question, staying on the last one.
func (m *Machine) Advance() error {
	if err := m.check(EventAdvance); err != nil {
		return err
	}
	m.state.Current = clamp(m.state.Current+1, 0, len(m.state.Order)-1)
	return nil
}

// Retreat moves to the previous question, staying on the first one.
func (m *Machine) Retreat() error {
	if err := m.check(EventRetreat); err != nil {
		return err
	}
	if !m.opts.AllowReview {
		return ErrReviewDisabled
	}
	m.state.Current = clamp(m.state.Current-1, 0, len(m.state.Order)-1)
	return nil
}

func (m *Machine) inOrder(questionID string) bool {
	for _, id := range m.state.Order {
		if id == questionID {
			return true
		}
	}
	return false
}

// RecordAnswer stores a bank-indexed answer, replacing any previous one.
func (m *Machine) RecordAnswer(questionID string, a model.Answer) error {
	if err := m.check(EventAnswer); err != nil {
		return err
	}
	q, ok := m.bank.Get(questionID)
	if !ok || !m.inOrder(questionID) {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if a.Type != q.Type {
		return fmt.Errorf("%w: %s is %s", ErrAnswerType, questionID, q.Type)
	}
	if q.Type == model.QuestionTypeSingle && (a.ChoiceIndex < 0 || a.ChoiceIndex >= len(q.Options)) {
		return fmt.Errorf("%w: %d", ErrChoiceOutOfRange, a.ChoiceIndex)
	}
	m.state.Answers[questionID] = a
	return nil
}

// RecordChoice stores a single-choice answer given as a display index.
func (m *Machine) RecordChoice(questionID string, displayIndex int) error {
	if err := m.check(EventAnswer); err != nil {
		return err
	}
	q, ok := m.bank.Get(questionID)
	if !ok || !m.inOrder(questionID) {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	perm := m.DisplayOrder(questionID)
	if displayIndex < 0 || displayIndex >= len(perm) {
		return fmt.Errorf("%w: %d", ErrChoiceOutOfRange, displayIndex)
	}
	return m.RecordAnswer(questionID, model.Answer{Type: q.Type, ChoiceIndex: perm[displayIndex]})
}

// DisplayOrder returns, per display position, the bank option index.
func (m *Machine) DisplayOrder(questionID string) []int {
	q, ok := m.bank.Get(questionID)
	if !ok {
		return nil
	}
	if perm, ok := m.state.OptionOrder[questionID]; ok && isPermutation(perm, len(q.Options)) {
		return append([]int(nil), perm...)
	}
	perm := make([]int, len(q.Options))
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// Submit grades the session once. Later calls, including a racing timer
// expiry, get ErrIllegalTransition and never re-score.
func (m *Machine) Submit() (Result, error) {
	if !m.submitted.CompareAndSwap(false, true) {
		return m.result(), fmt.Errorf("%w: %s in %s", ErrIllegalTransition, EventSubmit, model.SessionStatusSubmitted)
	}

	res, err := m.score(m.state.Order, m.state.Answers, m.bank)
	at := m.now().UnixMilli()
	m.state.Score = res.Score
	m.state.TagStats = res.TagStats
	m.state.Submitted = true
	m.state.SubmittedAt = &at
	return res, err
}

func (m *Machine) result() Result {
	return Result{Score: m.state.Score, TagStats: m.state.TagStats}
}

// Deadline returns the epoch-millisecond deadline when the session is timed.
func (m *Machine) Deadline() (int64, bool) {
	if m.opts.TimeLimit <= 0 || m.state.EndsAt == nil {
		return 0, false
	}
	return *m.state.EndsAt, true
}

// Remaining returns the time left; ok is false for untimed sessions.
func (m *Machine) Remaining(now time.Time) (time.Duration, bool) {
	ends, ok := m.Deadline()
	if !ok {
		return 0, false
	}
	return Remaining(now, ends), true
}

// Tick submits the session when its deadline has passed. It reports whether
// this call performed the submission.
func (m *Machine) Tick(now time.Time) (bool, Result, error) {
	ends, ok := m.Deadline()
	if !ok || !Expired(now, ends) || m.submitted.Load() {
		return false, Result{}, nil
	}
	res, err := m.Submit()
	if errors.Is(err, ErrIllegalTransition) {
		return false, res, nil
	}
	return true, res, err
}
