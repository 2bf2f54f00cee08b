package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceRepository hands out strictly increasing values per named
// counter. The increment is a single atomic upsert, so concurrent
// callers can never observe the same value.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		name,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
