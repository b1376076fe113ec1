package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/store"
)

type brokenStore struct{}

var errDown = errors.New("storage unavailable")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errDown }
func (brokenStore) Set(context.Context, string, []byte) error { return errDown }
func (brokenStore) Delete(context.Context, string) error { return errDown }

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(store.NewMemoryStore(), "cbt", zerolog.Nop())

	started, ends := int64(1_700_000_000_000), int64(1_700_003_000_000)
	st := &model.SessionState{
		Order:     []string{"q2", "q1"},
		Answers:   map[string]model.Answer{"q1": {Type: model.QuestionTypeSingle, ChoiceIndex: 1}},
		Current:   1,
		StartedAt: &started,
		EndsAt:    &ends,
		Submitted: true,
		Score:     1,
		TagStats:  map[string]model.TagStat{"A": {Count: 1, Correct: 1}},
	}
	a.Save(ctx, st)

	got := a.Load(ctx)
	if got == nil {
		t.Fatal("expected state")
	}
	if len(got.Order) != 2 || got.Order[0] != "q2" || got.Answers["q1"].ChoiceIndex != 1 {
		t.Fatalf("order/answers mismatch: %+v", got)
	}
	if !got.Submitted || got.Score != 1 || got.TagStats["A"] != (model.TagStat{Count: 1, Correct: 1}) {
		t.Fatalf("result mismatch: %+v", got)
	}
	if *got.EndsAt <= *got.StartedAt {
		t.Fatal("deadline must follow start")
	}
}

func TestLoadTreatsInvalidSlotsAsAbsent(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":     "{",
		"no order":     `{"answers":{}}`,
		"order string": `{"order":"q1"}`,
		"order null":   `{"order":null}`,
		"bad field":    `{"order":["q1"],"current":"x"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			_ = mem.Set(ctx, "cbt", []byte(raw))
			if got := NewAdapter(mem, "cbt", zerolog.Nop()).Load(ctx); got != nil {
				t.Fatalf("expected nil, got %+v", got)
			}
		})
	}
}

func TestAdapterSwallowsStorageErrors(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(brokenStore{}, "cbt", zerolog.Nop())

	a.Save(ctx, model.NewSessionState())
	a.Clear(ctx)
	if got := a.Load(ctx); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestClearRemovesSlot(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(store.NewMemoryStore(), "cbt", zerolog.Nop())
	a.Save(ctx, &model.SessionState{Order: []string{"q1"}})
	a.Clear(ctx)
	if a.Load(ctx) != nil {
		t.Fatal("expected slot cleared")
	}
}
