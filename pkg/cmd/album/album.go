package album

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/musewave/musewave/pkg/assemble"
	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/library"
	"github.com/musewave/musewave/pkg/storage"
	"github.com/musewave/musewave/pkg/suggest"
	"github.com/musewave/musewave/pkg/textgen"
)

type Config struct {
	Debug   bool
	Token   string
	Model   string
	Timeout time.Duration

	DBType string
	DBConn string
	UserID string

	// Optional CSV file extending the audio catalog.
	Library string

	Title             string
	Prompt            string
	Genres            string
	Languages         string
	Lyrics            string
	ArtistInspiration string
	VideoStyle        string
	NumSongs          int

	// Optional YAML file with per-track overrides. When present it wins
	// over NumSongs.
	Tracks string
}

// Run assembles a whole album and stores it when a database is configured.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("album: token is required")
	}
	assembler, err := newAssembler(cfg)
	if err != nil {
		return err
	}

	var tracks []assemble.TrackIntent
	if cfg.Tracks != "" {
		b, err := os.ReadFile(cfg.Tracks)
		if err != nil {
			return fmt.Errorf("album: couldn't read tracks file: %w", err)
		}
		if err := yaml.Unmarshal(b, &tracks); err != nil {
			return fmt.Errorf("album: couldn't parse tracks file: %w", err)
		}
	}

	record, err := assembler.Album(ctx, assemble.AlbumIntent{
		Title:             cfg.Title,
		MusicPrompt:       cfg.Prompt,
		Genres:            splitCSV(cfg.Genres),
		VocalLanguages:    splitCSV(cfg.Languages),
		Lyrics:            cfg.Lyrics,
		ArtistInspiration: cfg.ArtistInspiration,
		VideoStyle:        cfg.VideoStyle,
		NumSongs:          cfg.NumSongs,
		Tracks:            tracks,
	})
	if err != nil {
		return err
	}

	if cfg.DBType != "" {
		store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("album: couldn't create store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("album: couldn't start store: %w", err)
		}
		if err := saveAlbum(ctx, store, record, cfg.UserID); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("album: couldn't marshal record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func saveAlbum(ctx context.Context, store *storage.Store, record *assemble.AlbumRecord, userID string) error {
	album := &storage.Album{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Title:       record.Title,
		MusicPrompt: record.MusicPrompt,
		Genres:      record.Genres,
		CoverArtURL: record.CoverArtURL,
		NumSongs:    len(record.Tracks),
	}
	songs := make([]*storage.Song, 0, len(record.Tracks))
	for i := range record.Tracks {
		track := &record.Tracks[i]
		songs = append(songs, &storage.Song{
			ID:                ulid.Make().String(),
			UserID:            userID,
			AlbumID:           album.ID,
			TrackNumber:       track.TrackNumber,
			Title:             track.Title,
			MusicPrompt:       track.MusicPrompt,
			Genres:            track.Genres,
			DurationSeconds:   track.DurationSeconds,
			VocalLanguages:    track.VocalLanguages,
			Lyrics:            track.Lyrics,
			ArtistInspiration: track.ArtistInspiration,
			VideoStyle:        track.VideoStyle,
			AudioURL:          track.AudioURL,
			CoverArtURL:       track.CoverArtURL,
			Accuracy:          track.Accuracy,
			IsFallback:        track.IsFallback,
		})
	}
	if err := store.SetAlbumSongs(ctx, album, songs); err != nil {
		return err
	}
	log.Printf("album: stored %s with %d tracks\n", album.ID, len(record.Tracks))
	return nil
}

func newAssembler(cfg *Config) (*assemble.Assembler, error) {
	kb, err := knowledge.New()
	if err != nil {
		return nil, fmt.Errorf("album: couldn't load knowledge base: %w", err)
	}
	catalog, err := library.New()
	if err != nil {
		return nil, fmt.Errorf("album: couldn't load asset catalog: %w", err)
	}
	if cfg.Library != "" {
		f, err := os.Open(cfg.Library)
		if err != nil {
			return nil, fmt.Errorf("album: couldn't open library file: %w", err)
		}
		defer f.Close()
		if err := catalog.ImportAudioCSV(f); err != nil {
			return nil, err
		}
	}
	gen := textgen.New(&textgen.Config{
		Debug:   cfg.Debug,
		Token:   cfg.Token,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	suggester := suggest.New(kb, gen, suggest.WithDebug(cfg.Debug))
	return assemble.New(suggester, catalog, assemble.WithDebug(cfg.Debug)), nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
