package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/seed"
)

// Static avoid-lists per field: terms the model keeps reaching for that make
// output feel canned. They are injected into every directive.
var (
	titleBlacklist = []string{
		"cathedral", "labyrinth", "monolith", "oracle", "abyss", "relic", "citadel",
		"sanctuary", "altar", "hymn", "epitaph", "requiem", "catacomb", "seraph", "omen",
	}
	titleGeneric = []string{
		"song", "track", "music", "untitled", "demo", "test", "vibe",
	}
	promptGeneric = []string{
		"masterpiece", "sonic journey", "soundscape of emotions", "musical tapestry",
	}
	lyricsGeneric = []string{
		"once upon a time", "dear reader", "the end",
	}
	videoGeneric = []string{
		"stunning visuals", "breathtaking", "mesmerizing journey",
	}
)

// A small fixed set of creative stances. One is selected by hashing the
// uniqueness seed so that repeated calls with identical context still
// diverge.
var stances = []string{
	"bold and futuristic",
	"warm and nostalgic",
	"minimal and hypnotic",
	"cinematic and widescreen",
	"raw and street-level",
	"playful and bright",
	"dark and late-night",
	"organic and handmade",
}

const systemCommon = "You are an elite global music producer and A&R advisor. " +
	"Return practical, production-ready outputs only. Never return stories."

var systemByField = map[Field]string{
	Title:             "Create relatable, market-friendly titles that are modern and memorable. Avoid archaic words and fantasy-like naming.",
	MusicPrompt:       "Write concrete production direction with instrumentation, groove, arrangement, and mix notes.",
	Genres:            "Pick genres that fit the prompt and are recognizable in current music culture.",
	VocalLanguages:    "Pick language choices that fit audience and phonetic flow; return Instrumental only when appropriate.",
	Lyrics:            "Return a concise lyrical concept that can become a song, not random poetry.",
	ArtistInspiration: "Suggest artist references that are musically relevant and diverse across regions.",
	VideoStyle:        "Return visual direction a director can execute, tied to the song's mood and genre.",
	Duration:          "Return only a practical duration suggestion like 30s, 45s, 1m20s, or 2:30.",
}

// Builder constructs the (system directive, user directive) pair for a field.
// It is a pure function of its inputs: no network access, no shared state.
type Builder struct {
	kb *knowledge.Base
}

func NewBuilder(kb *knowledge.Base) *Builder {
	return &Builder{kb: kb}
}

// Build returns the directive pair for one generation attempt. The uniqueness
// token selects a creative stance preset so identical contexts still diverge
// across attempts.
func (b *Builder) Build(field Field, req *Request, token string) (system, user string) {
	system = strings.TrimSpace(systemCommon + " " + systemByField[field])

	stance := stances[seed.Pick(token, "stance", len(stances))]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Field: %s\n", field)
	fmt.Fprintf(&sb, "Seed: %s\n", token)
	fmt.Fprintf(&sb, "Creative stance: %s\n", stance)
	fmt.Fprintf(&sb, "Context JSON: %s\n", compactContext(field, req.Context))
	if req.CurrentValue != "" {
		fmt.Fprintf(&sb, "Current value: %s\n", req.CurrentValue)
	}

	switch field {
	case Title:
		sb.WriteString("Task: return ONE title that is catchy, modern, relatable, and commercially believable.\n")
		sb.WriteString("Rules:\n- 1 to 5 words only\n- no archaic/fantasy words\n- no punctuation-heavy output\n- no explanation\n")
	case MusicPrompt:
		sb.WriteString("Task: write one music production prompt.\n")
		sb.WriteString("Rules:\n- 2 to 4 sentences\n- include instrumentation, groove, arrangement direction, and mixing cues\n- must be directly usable to generate a track\n- no explanation wrapper\n")
	case Genres:
		fmt.Fprintf(&sb, "Allowed genres (pick from this list): %s\n", strings.Join(b.kb.Genres(), ", "))
		sb.WriteString("Task: choose 2 to 4 genres that best match the context.\n")
		sb.WriteString("Rules:\n- comma-separated only\n- use names from allowed list\n- no explanation\n")
	case VocalLanguages:
		fmt.Fprintf(&sb, "Allowed languages (pick from this list): %s\n", strings.Join(b.kb.Languages(), ", "))
		sb.WriteString("Task: choose 1 to 3 vocal language options, or Instrumental when no vocals are needed.\n")
		sb.WriteString("Rules:\n- comma-separated only\n- use names from allowed list\n- no explanation\n")
	case Lyrics:
		sb.WriteString("Task: give one concise lyrical concept aligned with the context.\n")
		sb.WriteString("Rules:\n- clear emotional direction and hook idea\n- no storybook style\n- no explanation wrapper\n")
	case ArtistInspiration:
		fmt.Fprintf(&sb, "Known artists reference: %s\n", strings.Join(b.kb.Artists(), ", "))
		sb.WriteString("Task: suggest 2 to 4 artist references that fit the context.\n")
		sb.WriteString("Rules:\n- comma-separated names only\n- use globally known and musically relevant artists\n- no explanation\n")
	case VideoStyle:
		sb.WriteString("Task: write one executable music-video direction.\n")
		sb.WriteString("Rules:\n- 2 to 3 sentences\n- include color/lighting, camera movement, and editing rhythm\n- directly tied to the song mood\n- no explanation wrapper\n")
	case Duration:
		sb.WriteString("Task: suggest one practical duration.\n")
		sb.WriteString("Rules:\n- return only one value like 30s, 45s, 1m20s, or 2:30\n- no explanation\n")
	default:
		sb.WriteString("Task: return one practical, field-specific suggestion only.\n")
	}

	avoid := avoidTerms(field)
	if len(avoid) > 0 {
		fmt.Fprintf(&sb, "Avoid these %d generic terms: %s\n", len(avoid), strings.Join(avoid, ", "))
	}
	if recent := trimRecent(req.Recent); len(recent) > 0 {
		fmt.Fprintf(&sb, "Avoid these recent suggestions: %s\n", strings.Join(recent, ", "))
	}
	sb.WriteString("Return only the suggestion text.")
	return system, sb.String()
}

func avoidTerms(field Field) []string {
	switch field {
	case Title:
		avoid := make([]string, 0, len(titleBlacklist)+len(titleGeneric))
		avoid = append(avoid, titleBlacklist...)
		avoid = append(avoid, titleGeneric...)
		return avoid
	case MusicPrompt:
		return promptGeneric
	case Lyrics:
		return lyricsGeneric
	case VideoStyle:
		return videoGeneric
	default:
		return nil
	}
}

func trimRecent(recent []string) []string {
	var out []string
	for _, r := range recent {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
		if len(out) == 8 {
			break
		}
	}
	return out
}

// compactContext serializes only the sibling fields relevant to the target
// field, truncated so directives stay small.
func compactContext(field Field, ctx Context) string {
	compact := Context{
		MusicPrompt:       truncate(ctx.MusicPrompt, 280),
		ArtistInspiration: truncate(ctx.ArtistInspiration, 180),
		AlbumContext:      truncate(ctx.AlbumContext, 140),
		TrackNumber:       ctx.TrackNumber,
	}
	if len(ctx.Genres) > 6 {
		compact.Genres = ctx.Genres[:6]
	} else {
		compact.Genres = ctx.Genres
	}
	switch field {
	case Lyrics:
		compact.VocalLanguages = ctx.VocalLanguages
		compact.Title = truncate(ctx.Title, 60)
	case Duration:
		compact.DurationSeconds = ctx.DurationSeconds
	case VideoStyle:
		compact.Lyrics = truncate(ctx.Lyrics, 180)
		compact.Title = truncate(ctx.Title, 60)
	default:
		compact.Lyrics = truncate(ctx.Lyrics, 180)
	}
	js, err := json.Marshal(compact)
	if err != nil {
		return "{}"
	}
	return string(js)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary so the cut never splits a UTF-8 sequence.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
