package ingest

import (
	"context"

	"go.uber.org/zap"
)

// SeenStore is the backend for the deduplication gate. SetNX must be atomic:
// when two concurrent calls race on the same id, exactly one sees true.
// Delete releases an id so a later delivery can pass again.
type SeenStore interface {
	SetNX(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Gate rejects repeat deliveries of the same call-ended event. It fails
// open on backend errors: the upstream retries anyway and the store's
// unique constraint catches genuine duplicates.
type Gate struct {
	store  SeenStore
	logger *zap.Logger
}

// NewGate creates a deduplication gate over the given backend
func NewGate(store SeenStore, logger *zap.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// CheckAndMark atomically records the call id as processed. Returns true
// when this delivery is the first one seen for the id.
func (g *Gate) CheckAndMark(ctx context.Context, callID string) bool {
	first, err := g.store.SetNX(ctx, callID)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("dedup gate backend error, failing open",
				zap.String("call_id", callID),
				zap.Error(err))
		}
		return true
	}
	return first
}

// Unmark releases a call id whose record did not make it into the store, so
// the upstream's retry can run the pipeline again instead of being rejected
// as a duplicate of a record that does not exist.
func (g *Gate) Unmark(ctx context.Context, callID string) {
	if err := g.store.Delete(ctx, callID); err != nil && g.logger != nil {
		g.logger.Warn("failed to release dedup mark",
			zap.String("call_id", callID),
			zap.Error(err))
	}
}
