package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/store"
)

const (
	MirrorPollTimeout = 1 * time.Second
	MirrorRetryDelay  = 5 * time.Second
)

// SlotMirrorWorker consumes mirror_slots_queue and applies every queued slot
// write to the durable mirror store (PostgreSQL in the tiered driver).
type SlotMirrorWorker struct {
	rdb        *redis.Client
	mirror     store.SlotStore
	log        zerolog.Logger
	retryDelay time.Duration
}

// NewSlotMirrorWorker creates a new SlotMirrorWorker.
func NewSlotMirrorWorker(rdb *redis.Client, mirror store.SlotStore, log zerolog.Logger) *SlotMirrorWorker {
	return &SlotMirrorWorker{
		rdb:        rdb,
		mirror:     mirror,
		log:        log.With().Str("component", "slot_mirror_worker").Logger(),
		retryDelay: MirrorRetryDelay,
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SlotMirrorWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SlotMirrorWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, MirrorPollTimeout, config.WorkerKey.MirrorSlotsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	op, ok := w.decode(result[1])
	if !ok {
		return
	}

	if err := store.Apply(ctx, w.mirror, op); err != nil {
		w.log.Error().Err(err).
			Str("op", op.Op).
			Str("key", op.Key).
			Dur("retry_in", w.retryDelay).
			Msg("Mirror write failed, requeued")
		// Back to the head so later ops for the same key stay behind it.
		w.rdb.LPush(context.Background(), config.WorkerKey.MirrorSlotsQueue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// decode drops payloads that can never be applied.
func (w *SlotMirrorWorker) decode(raw string) (*store.MirrorOp, bool) {
	var op store.MirrorOp
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping op")
		return nil, false
	}
	if op.Op != store.MirrorOpSet && op.Op != store.MirrorOpDelete {
		w.log.Error().Str("op", op.Op).Msg("Unknown mirror op, dropping")
		return nil, false
	}
	return &op, true
}

// drain applies all remaining queued ops before shutdown.
func (w *SlotMirrorWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.MirrorSlotsQueue).Result()
		if err != nil {
			break
		}

		op, ok := w.decode(raw)
		if !ok {
			continue
		}

		if err := store.Apply(ctx, w.mirror, op); err != nil {
			w.log.Error().Err(err).Msg("Drain mirror error")
			w.rdb.LPush(ctx, config.WorkerKey.MirrorSlotsQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
