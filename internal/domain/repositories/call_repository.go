package repositories

import (
	"context"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
)

// CallRepository is the durable store for finalized call records.
//
// Append must fail with entities.ErrDuplicateCall when a record with the
// same id already exists; this unique constraint is the hard backstop
// beneath the in-memory deduplication gate. ListAll returns records in
// descending timestamp order and must tolerate malformed rows (skip them)
// rather than failing the whole query.
type CallRepository interface {
	Append(ctx context.Context, record *entities.CallRecord) error
	ListAll(ctx context.Context) ([]*entities.CallRecord, error)
}
