// Package suggest turns a single generic text-completion call into reliable,
// de-duplicated, domain-constrained field suggestions.
package suggest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/seed"
)

// Generator is the external text-completion collaborator.
type Generator interface {
	Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

const defaultAttempts = 3

// Suggester retries field generation through build -> generate -> validate
// until a valid suggestion is produced or the attempt budget is exhausted.
type Suggester struct {
	builder   *Builder
	validator *Validator
	gen       Generator
	attempts  int
	debug     bool
}

type Option func(*Suggester)

// WithAttempts overrides the retry budget.
func WithAttempts(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithDebug enables attempt logging.
func WithDebug(debug bool) Option {
	return func(s *Suggester) { s.debug = debug }
}

func New(kb *knowledge.Base, gen Generator, opts ...Option) *Suggester {
	s := &Suggester{
		builder:   NewBuilder(kb),
		validator: NewValidator(kb),
		gen:       gen,
		attempts:  defaultAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest produces a validated suggestion for the requested field. It returns
// the empty string when the attempt budget is exhausted without an accepted
// value; callers must treat that as "no suggestion available", never as a
// fatal error. The only error returned is context cancellation.
func (s *Suggester) Suggest(ctx context.Context, req *Request) (string, error) {
	if !req.Field.Valid() {
		return "", fmt.Errorf("suggest: unknown field: %s", req.Field)
	}
	cfg := fieldConfigs[req.Field]

	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("suggest: %w", err)
		}

		// A fresh seed per attempt so retries are not merely re-checking
		// the same completion.
		token := seed.New()
		system, user := s.builder.Build(req.Field, req, token)

		raw, err := s.gen.Generate(ctx, system, user, cfg.temperature, cfg.maxTokens)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("suggest: %w", ctx.Err())
			}
			// Upstream failures consume one attempt, nothing more.
			s.logf("suggest: %s attempt %d failed: %v", req.Field, attempt+1, err)
			continue
		}

		candidate := s.validator.Validate(req.Field, raw)
		if candidate == "" {
			s.logf("suggest: %s attempt %d rejected by validation", req.Field, attempt+1)
			continue
		}
		if isRepeat(candidate, req) {
			s.logf("suggest: %s attempt %d duplicated a prior suggestion", req.Field, attempt+1)
			continue
		}
		return candidate, nil
	}
	return "", nil
}

func (s *Suggester) logf(format string, args ...any) {
	if !s.debug {
		return
	}
	log.Printf(format+"\n", args...)
}

func isRepeat(candidate string, req *Request) bool {
	norm := normalize(candidate)
	if req.CurrentValue != "" && norm == normalize(req.CurrentValue) {
		return true
	}
	for _, r := range req.Recent {
		if norm == normalize(r) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
