package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/store"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func push(t *testing.T, rdb *redis.Client, op store.MirrorOp) {
	t.Helper()
	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatal(err)
	}
	if err := rdb.RPush(context.Background(), config.WorkerKey.MirrorSlotsQueue, raw).Err(); err != nil {
		t.Fatal(err)
	}
}

func TestSlotMirrorWorkerAppliesQueuedOps(t *testing.T) {
	_, rdb := newRedis(t)
	mirror := store.NewMemoryStore()
	w := NewSlotMirrorWorker(rdb, mirror, zerolog.Nop())
	ctx := context.Background()

	push(t, rdb, store.MirrorOp{Op: store.MirrorOpSet, Key: "k", Payload: json.RawMessage(`{"a":1}`)})
	w.processNext(ctx)

	got, err := mirror.Get(ctx, "k")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("expected mirrored payload, got %q (%v)", got, err)
	}

	push(t, rdb, store.MirrorOp{Op: store.MirrorOpDelete, Key: "k"})
	w.processNext(ctx)
	if _, err := mirror.Get(ctx, "k"); !errors.Is(err, store.ErrSlotNotFound) {
		t.Fatalf("expected delete to be mirrored, got %v", err)
	}
}

func TestSlotMirrorWorkerDropsGarbage(t *testing.T) {
	_, rdb := newRedis(t)
	w := NewSlotMirrorWorker(rdb, store.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	rdb.RPush(ctx, config.WorkerKey.MirrorSlotsQueue, "not json")
	push(t, rdb, store.MirrorOp{Op: "rename", Key: "k"})
	w.processNext(ctx)
	w.processNext(ctx)

	if n := rdb.LLen(ctx, config.WorkerKey.MirrorSlotsQueue).Val(); n != 0 {
		t.Fatalf("expected garbage to be dropped, %d left", n)
	}
}

type failingStore struct {
	store.SlotStore
}

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("mirror down") }

func TestSlotMirrorWorkerRequeuesOnFailure(t *testing.T) {
	_, rdb := newRedis(t)
	w := NewSlotMirrorWorker(rdb, failingStore{store.NewMemoryStore()}, zerolog.Nop())
	w.retryDelay = time.Millisecond
	ctx := context.Background()

	push(t, rdb, store.MirrorOp{Op: store.MirrorOpSet, Key: "k", Payload: json.RawMessage(`{}`)})
	w.processNext(ctx)

	if n := rdb.LLen(ctx, config.WorkerKey.MirrorSlotsQueue).Val(); n != 1 {
		t.Fatalf("expected op to be requeued, queue length %d", n)
	}
}

func TestSlotMirrorWorkerDrainsOnShutdown(t *testing.T) {
	_, rdb := newRedis(t)
	mirror := store.NewMemoryStore()
	w := NewSlotMirrorWorker(rdb, mirror, zerolog.Nop())

	push(t, rdb, store.MirrorOp{Op: store.MirrorOpSet, Key: "a", Payload: json.RawMessage(`1`)})
	push(t, rdb, store.MirrorOp{Op: store.MirrorOpSet, Key: "b", Payload: json.RawMessage(`2`)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	for _, k := range []string{"a", "b"} {
		if _, err := mirror.Get(context.Background(), k); err != nil {
			t.Fatalf("expected %s drained, got %v", k, err)
		}
	}
}

func TestTieredStoreEndToEnd(t *testing.T) {
	_, rdb := newRedis(t)
	mirror := store.NewMemoryStore()
	tiered := store.NewTieredStore(rdb, mirror, zerolog.Nop())
	w := NewSlotMirrorWorker(rdb, mirror, zerolog.Nop())
	ctx := context.Background()

	if err := tiered.Set(ctx, "slot", []byte(`{"order":["q1"]}`)); err != nil {
		t.Fatal(err)
	}
	w.processNext(ctx)

	got, err := mirror.Get(ctx, "slot")
	if err != nil || string(got) != `{"order":["q1"]}` {
		t.Fatalf("expected slot mirrored, got %q (%v)", got, err)
	}
}

type countingTicker struct {
	mu    sync.Mutex
	calls int
	fired atomic.Bool
}

func (c *countingTicker) Tick(context.Context, time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.fired.CompareAndSwap(false, true)
}

func (c *countingTicker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestTimerWorkerTicksUntilCancelled(t *testing.T) {
	ticker := &countingTicker{}
	w := NewTimerWorker(ticker, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for ticker.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("timer worker did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer worker did not stop")
	}
}

func TestNewTimerWorkerDefaultsInterval(t *testing.T) {
	w := NewTimerWorker(&countingTicker{}, 0, zerolog.Nop())
	if w.interval != 250*time.Millisecond {
		t.Fatalf("unexpected default interval %v", w.interval)
	}
}
