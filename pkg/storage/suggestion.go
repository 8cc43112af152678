package storage

import (
	"context"
	"fmt"
	"time"
)

// Suggestion is one accepted suggestion, kept as history so later requests
// for the same user and field can avoid repeating it.
type Suggestion struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time

	UserID string `gorm:"index;not null;default:''"`
	Field  string `gorm:"index;not null;default:''"`
	Value  string `gorm:"not null;default:''"`
}

func (s *Store) SetSuggestion(ctx context.Context, v *Suggestion) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set suggestion %s: %w", v.ID, err)
	}
	return nil
}

// RecentSuggestions returns the latest accepted values for the user and
// field, newest first.
func (s *Store) RecentSuggestions(ctx context.Context, userID, field string, limit int) ([]string, error) {
	var values []string
	q := s.db.Model(&Suggestion{}).
		Where("user_id = ? AND field = ?", userID, field).
		Order("created_at desc").
		Limit(limit)
	if err := q.Pluck("value", &values).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list recent suggestions: %w", err)
	}
	return values, nil
}
