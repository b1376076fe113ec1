// Package persistence saves and restores the in-progress session. Every
// failure is absorbed: losing the slot degrades to a fresh session.
package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/store"
)

// Adapter binds a slot store to one persist key.
type Adapter struct {
	slots store.SlotStore
	key   string
	log   zerolog.Logger
}

func NewAdapter(slots store.SlotStore, key string, log zerolog.Logger) *Adapter {
	return &Adapter{
		slots: slots,
		key:   key,
		log:   log.With().Str("component", "persistence").Str("persist_key", key).Logger(),
	}
}

// Save writes st to the slot. Errors are logged, never returned.
func (a *Adapter) Save(ctx context.Context, st *model.SessionState) {
	raw, err := json.Marshal(st)
	if err != nil {
		a.log.Error().Err(err).Msg("Marshal session failed")
		return
	}
	if err := a.slots.Set(ctx, a.key, raw); err != nil {
		a.log.Warn().Err(err).Msg("Save session failed")
	}
}

// Load returns the persisted state, or nil when the slot is empty, unreadable,
// not JSON, or lacks an order array.
func (a *Adapter) Load(ctx context.Context) *model.SessionState {
	raw, err := a.slots.Get(ctx, a.key)
	if err != nil {
		if !errors.Is(err, store.ErrSlotNotFound) {
			a.log.Warn().Err(err).Msg("Load session failed")
		}
		return nil
	}

	// Check the shape first: a missing or non-array order means "absent".
	var shape struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil || len(shape.Order) == 0 || shape.Order[0] != '[' {
		a.log.Warn().Err(err).Msg("Discarding malformed session")
		return nil
	}

	var st model.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		a.log.Warn().Err(err).Msg("Discarding malformed session")
		return nil
	}
	return &st
}

// Clear removes the slot.
func (a *Adapter) Clear(ctx context.Context) {
	if err := a.slots.Delete(ctx, a.key); err != nil {
		a.log.Warn().Err(err).Msg("Clear session failed")
	}
}
