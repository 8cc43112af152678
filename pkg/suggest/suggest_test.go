package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/musewave/musewave/pkg/knowledge"
)

type fakeGenerator struct {
	outputs []string
	errs    []error
	calls   int
	seen    []string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	i := f.calls
	f.calls++
	f.seen = append(f.seen, user)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.outputs) {
		return f.outputs[i], nil
	}
	return "", errors.New("no more outputs")
}

func newSuggester(t *testing.T, gen Generator, opts ...Option) *Suggester {
	t.Helper()
	kb, err := knowledge.New()
	if err != nil {
		t.Fatalf("knowledge.New() err = %v; want nil", err)
	}
	return New(kb, gen, opts...)
}

func TestSuggestAcceptsFirstValid(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"Neon Drift"}}
	s := newSuggester(t, gen)
	got, err := s.Suggest(context.Background(), &Request{Field: Title})
	if err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	if got != "Neon Drift" {
		t.Fatalf("Suggest() = %q; want %q", got, "Neon Drift")
	}
	if gen.calls != 1 {
		t.Fatalf("Generate() calls = %d; want 1", gen.calls)
	}
}

func TestSuggestRetriesUntilValid(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"Cathedral of Omens", // blacklist, rejected
		"",                   // empty, rejected
		"Midnight Signal",
	}}
	s := newSuggester(t, gen)
	got, err := s.Suggest(context.Background(), &Request{Field: Title})
	if err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	if got != "Midnight Signal" {
		t.Fatalf("Suggest() = %q; want %q", got, "Midnight Signal")
	}
	if gen.calls != 3 {
		t.Fatalf("Generate() calls = %d; want 3", gen.calls)
	}
}

func TestSuggestGivesUpEmpty(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"Cathedral", "Cathedral", "Cathedral"}}
	s := newSuggester(t, gen)
	got, err := s.Suggest(context.Background(), &Request{Field: Title})
	if err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	if got != "" {
		t.Fatalf("Suggest() = %q; want empty after exhausted retries", got)
	}
	if gen.calls != 3 {
		t.Fatalf("Generate() calls = %d; want 3", gen.calls)
	}
}

func TestSuggestGeneratorErrorConsumesAttempt(t *testing.T) {
	gen := &fakeGenerator{
		errs:    []error{errors.New("rate limited"), nil},
		outputs: []string{"", "Neon Drift"},
	}
	s := newSuggester(t, gen)
	got, err := s.Suggest(context.Background(), &Request{Field: Title})
	if err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	if got != "Neon Drift" {
		t.Fatalf("Suggest() = %q; want %q", got, "Neon Drift")
	}
	if gen.calls != 2 {
		t.Fatalf("Generate() calls = %d; want 2", gen.calls)
	}
}

func TestSuggestSkipsRecentDuplicates(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"Neon Drift", "neon  drift", "Fresh Signal"}}
	s := newSuggester(t, gen)
	got, err := s.Suggest(context.Background(), &Request{
		Field:  Title,
		Recent: []string{"Neon Drift"},
	})
	if err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	if got != "Fresh Signal" {
		t.Fatalf("Suggest() = %q; want %q", got, "Fresh Signal")
	}
}

func TestSuggestFreshSeedPerAttempt(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"Cathedral", "Cathedral", "Neon Drift"}}
	s := newSuggester(t, gen)
	if _, err := s.Suggest(context.Background(), &Request{Field: Title}); err != nil {
		t.Fatalf("Suggest() err = %v; want nil", err)
	}
	seen := map[string]bool{}
	for _, directive := range gen.seen {
		if seen[directive] {
			t.Fatal("Suggest() reused an identical directive across attempts")
		}
		seen[directive] = true
	}
}

func TestSuggestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{outputs: []string{"Neon Drift"}}
	s := newSuggester(t, gen)
	if _, err := s.Suggest(ctx, &Request{Field: Title}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Suggest() err = %v; want context.Canceled", err)
	}
}

func TestSuggestUnknownField(t *testing.T) {
	s := newSuggester(t, &fakeGenerator{})
	if _, err := s.Suggest(context.Background(), &Request{Field: "tempo"}); err == nil {
		t.Fatal("Suggest() err = nil; want error for unknown field")
	}
}
