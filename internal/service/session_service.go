package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/persistence"
	"github.com/stemsi/exstem-cbt/internal/quiz"
)

// Domain Errors
var (
	ErrNotSubmitted   = errors.New("session is not submitted yet")
	ErrNotInitialized = errors.New("session is not initialized")
)

// SessionService is the single owner of the running quiz session. Every
// handler (HTTP, WebSocket, terminal, timer) goes through it, and the mutex
// makes it the only writer of the session state.
type SessionService struct {
	mu      sync.Mutex
	bank    *bank.Bank
	cfg     config.QuizConfig
	store   *persistence.Adapter
	machine *quiz.Machine
	options []quiz.Option
	log     zerolog.Logger

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// NewSessionService creates a SessionService. Call Init before use.
func NewSessionService(
	b *bank.Bank,
	cfg config.QuizConfig,
	store *persistence.Adapter,
	log zerolog.Logger,
	options ...quiz.Option,
) *SessionService {
	return &SessionService{
		bank:    b,
		cfg:     cfg,
		store:   store,
		options: options,
		log:     log.With().Str("component", "session_service").Logger(),
		subs:    make(map[chan struct{}]struct{}),
	}
}

func (s *SessionService) machineOptions() quiz.Options {
	return quiz.Options{
		TimeLimit:        s.cfg.TimeLimit(),
		ShuffleQuestions: s.cfg.ShuffleQuestions,
		ShuffleOptions:   s.cfg.ShuffleOptions,
		AllowReview:      s.cfg.AllowReviewBeforeSubmit,
	}
}

// Init restores the persisted session or starts a fresh one.
func (s *SessionService) Init(ctx context.Context) model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := s.store.Load(ctx)
	s.machine = quiz.New(s.bank, s.machineOptions(), restored, s.options...)

	st := s.machine.State()
	ev := s.log.Info().
		Str("attempt_id", st.AttemptID).
		Int("questions", len(st.Order)).
		Bool("submitted", st.Submitted)
	if s.machine.Restored() {
		ev.Msg("Session restored")
	} else {
		if restored != nil {
			s.log.Warn().Msg("Persisted session does not match the bank, starting fresh")
		}
		ev.Msg("Session started")
	}

	s.store.Save(ctx, st)
	return s.viewLocked()
}

// Config returns the quiz options.
func (s *SessionService) Config() config.QuizConfig {
	return s.cfg
}

// View returns what the presentation layer should render now.
func (s *SessionService) View(_ context.Context) (model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return model.SessionView{}, ErrNotInitialized
	}
	return s.viewLocked(), nil
}

// absorb swallows illegal transitions: they come from fast input racing a
// state change and are not user errors.
func (s *SessionService) absorb(ev quiz.Event, err error) error {
	if errors.Is(err, quiz.ErrIllegalTransition) {
		s.log.Debug().Err(err).Str("event", string(ev)).Msg("Ignored illegal transition")
		return nil
	}
	return err
}

// mutate runs fn under the lock, persists and notifies subscribers.
func (s *SessionService) mutate(ctx context.Context, ev quiz.Event, fn func(m *quiz.Machine) error) (model.SessionView, error) {
	s.mu.Lock()
	if s.machine == nil {
		s.mu.Unlock()
		return model.SessionView{}, ErrNotInitialized
	}

	if err := s.absorb(ev, fn(s.machine)); err != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, err
	}

	s.store.Save(ctx, s.machine.State())
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify()
	return view, nil
}

// RecordAnswer answers questionID with the option at displayIndex.
func (s *SessionService) RecordAnswer(ctx context.Context, questionID string, displayIndex int) (model.SessionView, error) {
	return s.mutate(ctx, quiz.EventAnswer, func(m *quiz.Machine) error {
		return m.RecordChoice(questionID, displayIndex)
	})
}

// Advance moves to the next question.
func (s *SessionService) Advance(ctx context.Context) (model.SessionView, error) {
	return s.mutate(ctx, quiz.EventAdvance, func(m *quiz.Machine) error {
		return m.Advance()
	})
}

// Retreat moves to the previous question when review is allowed.
func (s *SessionService) Retreat(ctx context.Context) (model.SessionView, error) {
	return s.mutate(ctx, quiz.EventRetreat, func(m *quiz.Machine) error {
		return m.Retreat()
	})
}

// Next is the "next" button: advance, or submit on the last question.
func (s *SessionService) Next(ctx context.Context) (model.SessionView, error) {
	return s.mutate(ctx, quiz.EventAdvance, func(m *quiz.Machine) error {
		if m.IsLast() {
			return s.submitLocked(m)
		}
		return m.Advance()
	})
}

// Submit grades the session.
func (s *SessionService) Submit(ctx context.Context) (model.SessionView, error) {
	return s.mutate(ctx, quiz.EventSubmit, s.submitLocked)
}

func (s *SessionService) submitLocked(m *quiz.Machine) error {
	res, err := m.Submit()
	if errors.Is(err, quiz.ErrIllegalTransition) {
		return err
	}
	if err != nil {
		// The result is still usable; the session and bank disagree.
		s.log.Warn().Err(err).Msg("Session references questions missing from the bank")
	}
	s.log.Info().
		Int("score", res.Score).
		Int("total", len(m.State().Order)).
		Msg("Session submitted and graded")
	return nil
}

// Tick submits the session once its deadline has passed. It reports whether
// this call submitted.
func (s *SessionService) Tick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if s.machine == nil {
		s.mu.Unlock()
		return false
	}

	done, res, err := s.machine.Tick(now)
	if !done {
		s.mu.Unlock()
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Session references questions missing from the bank")
	}
	s.log.Info().Int("score", res.Score).Msg("Time limit reached, session auto-submitted")
	s.store.Save(ctx, s.machine.State())
	s.mu.Unlock()

	s.notify()
	return true
}

// Reset erases the persisted session and starts a new one.
func (s *SessionService) Reset(ctx context.Context) model.SessionView {
	s.mu.Lock()
	s.store.Clear(ctx)
	s.machine = quiz.New(s.bank, s.machineOptions(), nil, s.options...)
	st := s.machine.State()
	s.store.Save(ctx, st)
	s.log.Info().Str("attempt_id", st.AttemptID).Msg("Session reset")
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify()
	return view
}

// Result returns the result view of a submitted session.
func (s *SessionService) Result(_ context.Context) (*model.ResultView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return nil, ErrNotInitialized
	}
	st := s.machine.State()
	if !st.Submitted {
		return nil, ErrNotSubmitted
	}
	return s.resultLocked(st), nil
}

// Export returns the downloadable result document.
func (s *SessionService) Export(_ context.Context) (*model.ResultExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return nil, ErrNotInitialized
	}
	st := s.machine.State()
	if !st.Submitted {
		return nil, ErrNotSubmitted
	}
	return &model.ResultExport{
		Score:    st.Score,
		Answers:  st.Answers,
		TagStats: st.TagStats,
	}, nil
}

// Subscribe returns a channel signalled after every state change. The channel
// is buffered by one; slow readers only miss intermediate signals.
func (s *SessionService) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, ch)
		s.subMu.Unlock()
	}
}

func (s *SessionService) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Views
// ────────────────────────────────────────────────────────────────────────────

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func (s *SessionService) clock() time.Time {
	return s.machine.Now()
}

func (s *SessionService) viewLocked() model.SessionView {
	m := s.machine
	st := m.State()
	total := len(st.Order)

	view := model.SessionView{
		Title:      s.cfg.Title,
		Status:     st.Status(),
		Current:    st.Current,
		Total:      total,
		Progress:   float64(st.Current) / float64(max(1, total-1)),
		CanRetreat: !st.Submitted && s.cfg.AllowReviewBeforeSubmit && st.Current > 0,
		IsLast:     m.IsLast(),
	}

	if remaining, ok := m.Remaining(s.clock()); ok {
		ms := remaining.Milliseconds()
		view.TimeLimited = true
		view.RemainingMs = &ms
	}

	if st.Submitted {
		view.Result = s.resultLocked(st)
		return view
	}

	q, ok := m.CurrentQuestion()
	if !ok {
		return view
	}
	qv := &model.QuestionView{
		ID:     q.ID,
		Number: st.Current + 1,
		Type:   q.Type,
		Stem:   q.Stem,
	}
	ans, answered := st.Answers[q.ID]
	for display, canonical := range m.DisplayOrder(q.ID) {
		qv.Options = append(qv.Options, model.OptionView{Index: display, Text: q.Options[canonical]})
		if answered && ans.Type == q.Type && ans.ChoiceIndex == canonical {
			selected := display
			qv.Selected = &selected
		}
	}
	view.Question = qv
	return view
}

func (s *SessionService) resultLocked(st *model.SessionState) *model.ResultView {
	total := len(st.Order)
	res := &model.ResultView{
		Score:      st.Score,
		Total:      total,
		Percent:    percent(st.Score, total),
		TagStats:   []model.TagStatView{},
		ShowMissed: s.cfg.ShowMissedReview,
	}

	if _, timed := s.machine.Deadline(); timed && st.StartedAt != nil {
		end := s.clock().UnixMilli()
		if st.SubmittedAt != nil {
			end = *st.SubmittedAt
		}
		elapsed := min(end-*st.StartedAt, s.cfg.TimeLimit().Milliseconds())
		elapsed = max(elapsed, 0)
		res.ElapsedMs = &elapsed
	}

	// Tags in order of first appearance.
	seen := make(map[string]bool, len(st.TagStats))
	for _, id := range st.Order {
		q, ok := s.bank.Get(id)
		if !ok {
			continue
		}
		for _, tag := range q.CategoryTags() {
			ts, counted := st.TagStats[tag]
			if seen[tag] || !counted {
				continue
			}
			seen[tag] = true
			res.TagStats = append(res.TagStats, model.TagStatView{
				Tag:     tag,
				Count:   ts.Count,
				Correct: ts.Correct,
				Percent: percent(ts.Correct, ts.Count),
			})
		}
	}

	if !s.cfg.ShowMissedReview {
		return res
	}
	res.Missed = []model.MissedQuestion{}
	for i, id := range st.Order {
		q, ok := s.bank.Get(id)
		if !ok {
			continue
		}
		var ans *model.Answer
		if a, answered := st.Answers[id]; answered {
			ans = &a
		}
		if quiz.IsCorrect(q, ans) {
			continue
		}
		res.Missed = append(res.Missed, model.MissedQuestion{Number: i + 1, QuestionID: id, Stem: q.Stem})
	}
	return res
}
