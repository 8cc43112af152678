package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Song struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID      string `gorm:"index;not null;default:''"`
	AlbumID     string `gorm:"index;not null;default:''"`
	TrackNumber int    `gorm:"not null;default:0"`

	Title             string   `gorm:"not null;default:''"`
	MusicPrompt       string   `gorm:"not null;default:''"`
	Genres            []string `gorm:"serializer:json"`
	DurationSeconds   int      `gorm:"not null;default:0"`
	VocalLanguages    []string `gorm:"serializer:json"`
	Lyrics            string   `gorm:"not null;default:''"`
	ArtistInspiration string   `gorm:"not null;default:''"`
	VideoStyle        string   `gorm:"not null;default:''"`

	AudioURL    string `gorm:"not null;default:''"`
	CoverArtURL string `gorm:"not null;default:''"`
	Accuracy    int    `gorm:"not null;default:0"`
	IsFallback  bool   `gorm:"not null;default:false"`
}

func (s *Store) GetSong(ctx context.Context, id string) (*Song, error) {
	var v Song
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get song %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetSong(ctx context.Context, v *Song) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set song %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteSong(ctx context.Context, id string) error {
	if err := s.db.Delete(&Song{ID: id}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete song %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListSongs(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Song, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Song{}

	q := s.db.Offset(offset).Limit(size)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	// Order by
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list songs: %w", err)
	}
	return vs, nil
}

// RecentAudioURLs returns the audio assets most recently bound for the
// user, newest first. Callers seed the per-request used set with them so
// fresh generations avoid assets the user just received.
func (s *Store) RecentAudioURLs(ctx context.Context, userID string, limit int) ([]string, error) {
	var urls []string
	q := s.db.Model(&Song{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit)
	if err := q.Pluck("audio_url", &urls).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list recent audio urls: %w", err)
	}
	return urls, nil
}
