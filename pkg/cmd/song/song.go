package song

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

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
	Duration          int
}

// Run assembles a single song from the configured intent and stores it
// when a database is configured.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("song: token is required")
	}
	assembler, err := newAssembler(cfg)
	if err != nil {
		return err
	}

	var store *storage.Store
	used := map[string]bool{}
	if cfg.DBType != "" {
		store, err = storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("song: couldn't create store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("song: couldn't start store: %w", err)
		}
		urls, err := store.RecentAudioURLs(ctx, cfg.UserID, 20)
		if err != nil {
			return err
		}
		for _, u := range urls {
			used[baseURL(u)] = true
		}
	}

	record, err := assembler.Song(ctx, assemble.TrackIntent{
		Title:             cfg.Title,
		MusicPrompt:       cfg.Prompt,
		Genres:            splitCSV(cfg.Genres),
		DurationSeconds:   cfg.Duration,
		VocalLanguages:    splitCSV(cfg.Languages),
		Lyrics:            cfg.Lyrics,
		ArtistInspiration: cfg.ArtistInspiration,
		VideoStyle:        cfg.VideoStyle,
	}, used)
	if err != nil {
		return err
	}

	if store != nil {
		song := toSong(record, cfg.UserID, "")
		if err := store.SetSong(ctx, song); err != nil {
			return err
		}
		log.Printf("song: stored %s\n", song.ID)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("song: couldn't marshal record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// newAssembler builds the full pipeline shared by the song and album
// commands.
func newAssembler(cfg *Config) (*assemble.Assembler, error) {
	kb, err := knowledge.New()
	if err != nil {
		return nil, fmt.Errorf("song: couldn't load knowledge base: %w", err)
	}
	catalog, err := library.New()
	if err != nil {
		return nil, fmt.Errorf("song: couldn't load asset catalog: %w", err)
	}
	if cfg.Library != "" {
		f, err := os.Open(cfg.Library)
		if err != nil {
			return nil, fmt.Errorf("song: couldn't open library file: %w", err)
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

func toSong(record *assemble.TrackRecord, userID, albumID string) *storage.Song {
	return &storage.Song{
		ID:                ulid.Make().String(),
		UserID:            userID,
		AlbumID:           albumID,
		TrackNumber:       record.TrackNumber,
		Title:             record.Title,
		MusicPrompt:       record.MusicPrompt,
		Genres:            record.Genres,
		DurationSeconds:   record.DurationSeconds,
		VocalLanguages:    record.VocalLanguages,
		Lyrics:            record.Lyrics,
		ArtistInspiration: record.ArtistInspiration,
		VideoStyle:        record.VideoStyle,
		AudioURL:          record.AudioURL,
		CoverArtURL:       record.CoverArtURL,
		Accuracy:          record.Accuracy,
		IsFallback:        record.IsFallback,
	}
}

func baseURL(u string) string {
	return strings.SplitN(u, "?", 2)[0]
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
