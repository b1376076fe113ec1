package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionTicker is the part of the session service the timer drives.
type SessionTicker interface {
	Tick(ctx context.Context, now time.Time) bool
}

// TimerWorker checks the session deadline on a fixed interval so a timed
// session is auto-submitted even when nobody is interacting with it.
type TimerWorker struct {
	session  SessionTicker
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewTimerWorker creates a new TimerWorker.
func NewTimerWorker(session SessionTicker, interval time.Duration, log zerolog.Logger) *TimerWorker {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &TimerWorker{
		session:  session,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "timer_worker").Logger(),
	}
}

// Start begins the ticking loop. Call in a goroutine.
func (w *TimerWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if w.session.Tick(ctx, w.now()) {
				w.log.Info().Msg("Deadline reached, session submitted")
			}
		}
	}
}
