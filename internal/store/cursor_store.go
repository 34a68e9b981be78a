package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

func sweepCursorKey(sweeper string) string {
	return fmt.Sprintf("sweep_cursor:%s", sweeper)
}

// GetSweepCursor retrieves the last completed run time of a sweeper
func (s *gormStore) GetSweepCursor(ctx context.Context, sweeper string) (*time.Time, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", sweepCursorKey(sweeper)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // never ran
		}
		return nil, fmt.Errorf("failed to get sweep cursor: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, kv.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sweep cursor: %w", err)
	}

	return &at, nil
}

// SetSweepCursor stores the last completed run time of a sweeper
func (s *gormStore) SetSweepCursor(ctx context.Context, sweeper string, at time.Time) error {
	kv := schema.KeyValueStore{
		Key:   sweepCursorKey(sweeper),
		Value: at.UTC().Format(time.RFC3339Nano),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set sweep cursor: %w", err)
	}

	return nil
}
