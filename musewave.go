// Package musewave exposes the suggestion and assembly engine as a
// library, without the CLI or persistence layers.
package musewave

import (
	"context"
	"fmt"
	"time"

	"github.com/musewave/musewave/pkg/assemble"
	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/library"
	"github.com/musewave/musewave/pkg/suggest"
	"github.com/musewave/musewave/pkg/textgen"
)

type Config struct {
	Token   string
	Model   string
	Timeout time.Duration
	Debug   bool
}

// Engine bundles the pipeline for embedding in other programs.
type Engine struct {
	Suggester *suggest.Suggester
	Assembler *assemble.Assembler
	Catalog   *library.Library
	Knowledge *knowledge.Base
}

func New(cfg *Config) (*Engine, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("musewave: token is required")
	}
	kb, err := knowledge.New()
	if err != nil {
		return nil, fmt.Errorf("musewave: couldn't load knowledge base: %w", err)
	}
	catalog, err := library.New()
	if err != nil {
		return nil, fmt.Errorf("musewave: couldn't load asset catalog: %w", err)
	}
	gen := textgen.New(&textgen.Config{
		Debug:   cfg.Debug,
		Token:   cfg.Token,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	suggester := suggest.New(kb, gen, suggest.WithDebug(cfg.Debug))
	return &Engine{
		Suggester: suggester,
		Assembler: assemble.New(suggester, catalog, assemble.WithDebug(cfg.Debug)),
		Catalog:   catalog,
		Knowledge: kb,
	}, nil
}

// Suggest produces one validated suggestion for a field. The returned
// string is empty when no acceptable suggestion was produced within the
// attempt budget.
func (e *Engine) Suggest(ctx context.Context, req *suggest.Request) (string, error) {
	return e.Suggester.Suggest(ctx, req)
}

// AssembleSong fills the missing fields of the intent and binds it to
// catalog assets.
func (e *Engine) AssembleSong(ctx context.Context, intent assemble.TrackIntent) (*assemble.TrackRecord, error) {
	return e.Assembler.Song(ctx, intent, nil)
}

// AssembleAlbum expands an album intent into its tracks.
func (e *Engine) AssembleAlbum(ctx context.Context, intent assemble.AlbumIntent) (*assemble.AlbumRecord, error) {
	return e.Assembler.Album(ctx, intent)
}
