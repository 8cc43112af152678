package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Album struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID string `gorm:"index;not null;default:''"`

	Title             string   `gorm:"not null;default:''"`
	MusicPrompt       string   `gorm:"not null;default:''"`
	Genres            []string `gorm:"serializer:json"`
	VocalLanguages    []string `gorm:"serializer:json"`
	Lyrics            string   `gorm:"not null;default:''"`
	ArtistInspiration string   `gorm:"not null;default:''"`
	VideoStyle        string   `gorm:"not null;default:''"`
	CoverArtURL       string   `gorm:"not null;default:''"`
	NumSongs          int      `gorm:"not null;default:0"`

	Songs []Song `gorm:"foreignKey:AlbumID"`
}

func (s *Store) GetAlbum(ctx context.Context, id string) (*Album, error) {
	q := s.db.Preload("Songs", func(db *gorm.DB) *gorm.DB {
		return db.Order("track_number asc")
	})

	var v Album
	if err := q.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get album %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetAlbum(ctx context.Context, v *Album) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set album %s: %w", v.ID, err)
	}
	return nil
}

// SetAlbumSongs saves the album and its songs as one unit: either every
// row is committed or none are.
func (s *Store) SetAlbumSongs(ctx context.Context, v *Album, songs []*Song) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(v).Error; err != nil {
			return err
		}
		for _, song := range songs {
			if err := tx.Save(song).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: failed to set album %s with songs: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteAlbum(ctx context.Context, id string) error {
	if err := s.db.Delete(&Album{ID: id}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete album %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListAlbums(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Album, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Album{}

	q := s.db.Offset(offset).Limit(size)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	// Order by
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list albums: %w", err)
	}
	return vs, nil
}
