package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
	repo "github.com/calldeck-team/calldeck/internal/domain/repositories"
)

// memoryCallRepository is an in-process CallRepository used in tests and in
// store-less development runs. It enforces the same duplicate and ordering
// contract as the GORM implementation.
type memoryCallRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.CallRecord
}

// NewMemoryCallRepository creates an in-memory call record repository
func NewMemoryCallRepository() repo.CallRepository {
	return &memoryCallRepository{records: make(map[string]*entities.CallRecord)}
}

func (r *memoryCallRepository) Append(ctx context.Context, record *entities.CallRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return entities.ErrDuplicateCall
	}
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *memoryCallRepository) ListAll(ctx context.Context) ([]*entities.CallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*entities.CallRecord, 0, len(r.records))
	for _, rec := range r.records {
		clone := *rec
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}
