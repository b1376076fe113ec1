// Package store provides durable key-value slots for persisted sessions.
package store

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Get when the slot holds nothing.
var ErrSlotNotFound = errors.New("slot not found")

// SlotStore is a durable key-value slot. Implementations namespace keys themselves.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
