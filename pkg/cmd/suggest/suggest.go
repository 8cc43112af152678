package suggest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/musewave/musewave/pkg/knowledge"
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

	Field        string
	CurrentValue string

	// Sibling field values, used as generation context.
	Title             string
	Prompt            string
	Genres            string
	Languages         string
	Lyrics            string
	ArtistInspiration string
	VideoStyle        string
	Duration          int
}

// Run produces one suggestion for the configured field and prints it.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("suggest: token is required")
	}
	field := suggest.Field(cfg.Field)
	if !field.Valid() {
		return fmt.Errorf("suggest: unknown field: %s", cfg.Field)
	}

	kb, err := knowledge.New()
	if err != nil {
		return fmt.Errorf("suggest: couldn't load knowledge base: %w", err)
	}
	gen := textgen.New(&textgen.Config{
		Debug:   cfg.Debug,
		Token:   cfg.Token,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	suggester := suggest.New(kb, gen, suggest.WithDebug(cfg.Debug))

	// Recent suggestions come from the store when one is configured, so
	// repeated CLI calls for the same user keep diverging.
	var store *storage.Store
	var recent []string
	if cfg.DBType != "" {
		store, err = storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("suggest: couldn't create store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("suggest: couldn't start store: %w", err)
		}
		recent, err = store.RecentSuggestions(ctx, cfg.UserID, cfg.Field, 8)
		if err != nil {
			return err
		}
	}

	value, err := suggester.Suggest(ctx, &suggest.Request{
		Field:        field,
		CurrentValue: cfg.CurrentValue,
		Context: suggest.Context{
			Title:             cfg.Title,
			MusicPrompt:       cfg.Prompt,
			Genres:            splitCSV(cfg.Genres),
			VocalLanguages:    splitCSV(cfg.Languages),
			Lyrics:            cfg.Lyrics,
			ArtistInspiration: cfg.ArtistInspiration,
			VideoStyle:        cfg.VideoStyle,
			DurationSeconds:   cfg.Duration,
		},
		Recent: recent,
	})
	if err != nil {
		return err
	}
	if value == "" {
		log.Println("suggest: no acceptable suggestion within the attempt budget")
		return nil
	}
	if store != nil {
		if err := store.SetSuggestion(ctx, &storage.Suggestion{
			ID:     ulid.Make().String(),
			UserID: cfg.UserID,
			Field:  cfg.Field,
			Value:  value,
		}); err != nil {
			return err
		}
	}
	fmt.Println(value)
	return nil
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
