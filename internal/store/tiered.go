package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/config"
)

// Mirror operations carried on the mirror queue.
const (
	MirrorOpSet    = "set"
	MirrorOpDelete = "delete"
)

// MirrorOp is one queued write destined for the durable mirror.
type MirrorOp struct {
	Op        string          `json:"op"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// TieredStore serves slots from redis and mirrors every write to a durable
// store through a redis queue drained by worker.SlotMirrorWorker. Reads that
// miss redis fall back to the mirror and re-populate redis.
type TieredStore struct {
	fast   *RedisStore
	rdb    *redis.Client
	mirror SlotStore
	log    zerolog.Logger
}

func NewTieredStore(rdb *redis.Client, mirror SlotStore, log zerolog.Logger) *TieredStore {
	return &TieredStore{
		fast:   NewRedisStore(rdb),
		rdb:    rdb,
		mirror: mirror,
		log:    log.With().Str("component", "tiered_store").Logger(),
	}
}

func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.fast.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("Redis read failed, falling back to mirror")
	}

	data, err = s.mirror.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// Self-heal so the next read is served from redis.
	if err := s.fast.Set(ctx, key, data); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Redis self-heal failed")
	}
	return data, nil
}

func (s *TieredStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.fast.Set(ctx, key, value); err != nil {
		return err
	}
	return s.enqueue(ctx, MirrorOp{Op: MirrorOpSet, Key: key, Payload: value})
}

// Delete removes the slot from both tiers right away and also queues the
// delete so mirror writes still waiting in the queue cannot resurrect it.
func (s *TieredStore) Delete(ctx context.Context, key string) error {
	if err := s.fast.Delete(ctx, key); err != nil {
		return err
	}
	if err := s.mirror.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Mirror delete failed, relying on queue")
	}
	return s.enqueue(ctx, MirrorOp{Op: MirrorOpDelete, Key: key})
}

func (s *TieredStore) enqueue(ctx context.Context, op MirrorOp) error {
	op.Timestamp = time.Now().UnixMilli()
	raw, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal mirror op: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.MirrorSlotsQueue, raw).Err()
}

// Apply executes a queued op against dst.
func Apply(ctx context.Context, dst SlotStore, op *MirrorOp) error {
	switch op.Op {
	case MirrorOpSet:
		return dst.Set(ctx, op.Key, op.Payload)
	case MirrorOpDelete:
		return dst.Delete(ctx, op.Key)
	default:
		return fmt.Errorf("unknown mirror op %q", op.Op)
	}
}
