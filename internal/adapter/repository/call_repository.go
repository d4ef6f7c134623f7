package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
	repo "github.com/calldeck-team/calldeck/internal/domain/repositories"
)

type callRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCallRepository creates a call record repository backed by GORM
func NewCallRepository(db *gorm.DB, logger *zap.Logger) repo.CallRepository {
	return &callRepository{db: db, logger: logger}
}

func (r *callRepository) Append(ctx context.Context, record *entities.CallRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return entities.ErrDuplicateCall
		}
		return err
	}
	return nil
}

// ListAll returns every record, newest first. Rows that fail to scan are
// skipped and logged so one malformed row cannot take down the whole query.
func (r *callRepository) ListAll(ctx context.Context) ([]*entities.CallRecord, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&entities.CallRecord{}).
		Order("timestamp DESC, id DESC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*entities.CallRecord, 0)
	for rows.Next() {
		var rec entities.CallRecord
		if err := r.db.ScanRows(rows, &rec); err != nil {
			if r.logger != nil {
				r.logger.Warn("skipping malformed call record row", zap.Error(err))
			}
			continue
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// isDuplicateKey matches both GORM's translated error and the raw postgres
// unique violation message, since TranslateError depends on dialector config.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
