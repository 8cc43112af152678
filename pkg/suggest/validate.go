package suggest

import (
	"regexp"
	"strings"

	"github.com/musewave/musewave/pkg/knowledge"
)

// Phrases that signal the model drifted into storytelling or poetry instead
// of production direction.
var redFlags = []string{
	"once upon a time", "there was", "a tale", "a story",
	"and they lived", "the end", "dear reader",
	"metaphorically", "symbolically", "in a land",
	"imagine if", "picture yourself", "you walk into",
}

// Production terminology a usable music prompt is expected to contain.
var productionTerms = []string{
	"acoustic", "electronic", "synth", "beat", "rhythm",
	"tempo", "bpm", "reverb", "echo", "delay", "filter",
	"frequency", "bass", "treble", "chord", "melody",
	"production", "mix", "master", "eq", "compression",
	"vocal", "instrumental", "drum", "guitar", "piano",
	"layer", "texture", "ambient", "lofi", "breakcore",
	"vibe", "mood", "energy", "dynamic", "groove",
}

var listNumbering = regexp.MustCompile(`^\s*\d+[)\.\-:]*\s*`)
var listSeparators = regexp.MustCompile(`[\n,;/|]+`)

// Validator filters raw generated text through three ordered layers:
// domain-specificity, content-quality and enumerated-value. It returns the
// accepted (possibly normalized) text, or the empty string to signal a retry.
type Validator struct {
	kb *knowledge.Base
}

func NewValidator(kb *knowledge.Base) *Validator {
	return &Validator{kb: kb}
}

// Validate runs all layers for the field. A rejection in an earlier layer
// short-circuits the rest. Validation is idempotent: re-validating accepted
// output returns it unchanged.
func (v *Validator) Validate(field Field, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	cfg := fieldConfigs[field]

	if cfg.freeText && !v.domainSpecific(field, text) {
		return ""
	}
	if !contentQuality(field, text) {
		return ""
	}
	if cfg.list {
		return v.filterList(field, text)
	}
	if field == Duration {
		return NormalizeDuration(text)
	}
	return text
}

// domainSpecific rejects narrative or poetry-shaped output and, for music
// prompts, requires at least one production term.
func (v *Validator) domainSpecific(field Field, text string) bool {
	lower := strings.ToLower(text)
	for _, flag := range redFlags {
		if strings.Contains(lower, flag) {
			return false
		}
	}
	if field == MusicPrompt {
		for _, term := range productionTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false
	}
	if field == Title {
		for _, term := range titleBlacklist {
			if strings.Contains(lower, term) {
				return false
			}
		}
		if strings.ContainsAny(text, ":;/\\{}[]") {
			return false
		}
		if len(text) > 44 {
			return false
		}
	}
	return true
}

// contentQuality enforces the per-field minimum word count and rejects
// punctuation-heavy output, a proxy for degenerate completions.
func contentQuality(field Field, text string) bool {
	words := strings.Fields(text)
	if len(words) < fieldConfigs[field].minWords {
		return false
	}
	if field == Title && len(words) > 6 {
		return false
	}
	if strings.Count(text, "!") > 2 || strings.Count(text, "?") > 1 {
		return false
	}
	return true
}

// filterList applies the enumerated-value layer for Genres and
// VocalLanguages: split, canonicalize against the knowledge base, keep
// legitimate niche terms longer than two characters, cap the list size.
func (v *Validator) filterList(field Field, text string) string {
	if field == VocalLanguages && strings.Contains(strings.ToLower(text), "instrumental") {
		return "Instrumental"
	}

	var kept []string
	seen := map[string]bool{}
	for _, item := range splitList(text) {
		canonical, ok := v.canonical(field, item)
		if !ok {
			if len(item) <= 2 {
				continue
			}
			canonical = titleCase(item)
		}
		key := strings.ToLower(canonical)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, canonical)
		if len(kept) == fieldConfigs[field].maxItems {
			break
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ", ")
}

func (v *Validator) canonical(field Field, item string) (string, bool) {
	if field == Genres {
		return v.kb.CanonicalGenre(item)
	}
	return v.kb.CanonicalLanguage(item)
}

// splitList breaks list-like text on common separators, strips numbering
// prefixes and quotes, and de-duplicates case-insensitively.
func splitList(text string) []string {
	var parts []string
	seen := map[string]bool{}
	for _, raw := range listSeparators.Split(text, -1) {
		cleaned := listNumbering.ReplaceAllString(raw, "")
		cleaned = strings.Trim(strings.TrimSpace(cleaned), "\"'`")
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, cleaned)
	}
	return parts
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
