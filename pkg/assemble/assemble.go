// Package assemble expands creative intents into complete track and album
// records, filling missing fields through suggestions and binding each
// track to catalog assets.
package assemble

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/musewave/musewave/pkg/library"
	"github.com/musewave/musewave/pkg/suggest"
)

// ValidationError reports caller-fixable input problems. It is never
// retried and never wraps transient failures.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "assemble: " + e.Reason
}

// TrackIntent is the caller-supplied description of one desired track
// before asset binding.
type TrackIntent struct {
	Title             string   `json:"title"`
	MusicPrompt       string   `json:"music_prompt"`
	Genres            []string `json:"genres"`
	DurationSeconds   int      `json:"duration_seconds"`
	VocalLanguages    []string `json:"vocal_languages"`
	Lyrics            string   `json:"lyrics"`
	ArtistInspiration string   `json:"artist_inspiration"`
	VideoStyle        string   `json:"video_style"`
}

// TrackRecord is a fully assembled track: the resolved intent plus its
// bound assets and position. Immutable once returned.
type TrackRecord struct {
	TrackIntent
	TrackNumber int    `json:"track_number"`
	AudioURL    string `json:"audio_url"`
	CoverArtURL string `json:"cover_art_url"`
	Accuracy    int    `json:"accuracy_percentage"`
	IsFallback  bool   `json:"is_fallback"`
}

// AlbumIntent describes a whole album: defaults applied to every track
// plus optional per-track overrides. When Tracks is non-empty it wins
// over NumSongs.
type AlbumIntent struct {
	Title             string        `json:"title"`
	MusicPrompt       string        `json:"music_prompt"`
	Genres            []string      `json:"genres"`
	VocalLanguages    []string      `json:"vocal_languages"`
	Lyrics            string        `json:"lyrics"`
	ArtistInspiration string        `json:"artist_inspiration"`
	VideoStyle        string        `json:"video_style"`
	NumSongs          int           `json:"num_songs"`
	Tracks            []TrackIntent `json:"tracks"`
}

// AlbumRecord is the assembled album with its dense, ordered track list.
type AlbumRecord struct {
	Title       string        `json:"title"`
	MusicPrompt string        `json:"music_prompt"`
	Genres      []string      `json:"genres"`
	CoverArtURL string        `json:"cover_art_url"`
	Tracks      []TrackRecord `json:"tracks"`
}

const (
	minAlbumSongs        = 2
	maxAlbumSongs        = 10
	defaultTrackDuration = 25
)

// trackMoods keeps otherwise-identical album defaults differentiated per
// track, cycling when the album is longer than the list.
var trackMoods = []string{
	"energetic opener",
	"introspective",
	"building momentum",
	"peak energy",
	"reflective closer",
}

// Assembler composes the suggestion pipeline with the asset catalog.
type Assembler struct {
	suggester *suggest.Suggester
	catalog   *library.Library
	debug     bool
}

type Option func(*Assembler)

// WithDebug enables per-track logging.
func WithDebug(debug bool) Option {
	return func(a *Assembler) { a.debug = debug }
}

func New(s *suggest.Suggester, catalog *library.Library, opts ...Option) *Assembler {
	a := &Assembler{suggester: s, catalog: catalog}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Song assembles a single track. The music prompt is the only required
// field; missing title and lyrics are filled best-effort and may remain
// empty when the suggestion budget runs out. used collects asset URLs
// consumed so far within the caller's batch and may be nil.
func (a *Assembler) Song(ctx context.Context, intent TrackIntent, used map[string]bool) (*TrackRecord, error) {
	if strings.TrimSpace(intent.MusicPrompt) == "" {
		return nil, &ValidationError{Reason: "music_prompt is required"}
	}
	if intent.Title == "" {
		title, err := a.suggester.Suggest(ctx, &suggest.Request{
			Field:   suggest.Title,
			Context: fieldContext(intent),
		})
		if err != nil {
			return nil, fmt.Errorf("assemble: suggest title: %w", err)
		}
		intent.Title = title
	}
	if intent.Lyrics == "" && wantsVocals(intent.VocalLanguages) {
		lyrics, err := a.suggester.Suggest(ctx, &suggest.Request{
			Field:   suggest.Lyrics,
			Context: fieldContext(intent),
		})
		if err != nil {
			return nil, fmt.Errorf("assemble: suggest lyrics: %w", err)
		}
		intent.Lyrics = lyrics
	}

	match := a.catalog.Select(library.Intent{
		MusicPrompt:       intent.MusicPrompt,
		ArtistInspiration: intent.ArtistInspiration,
		Lyrics:            intent.Lyrics,
		Genres:            intent.Genres,
		DurationSeconds:   intent.DurationSeconds,
	}, used)

	a.logf("assemble: song %q bound to %s (accuracy %d)", intent.Title, match.AudioURL, match.Accuracy)
	return &TrackRecord{
		TrackIntent: intent,
		AudioURL:    match.AudioURL,
		CoverArtURL: match.CoverArtURL,
		Accuracy:    match.Accuracy,
		IsFallback:  match.IsFallback,
	}, nil
}

// Album expands the intent into its tracks. Validation is all-or-nothing:
// any track without a resolvable music prompt fails the whole request
// before any track is assembled.
func (a *Assembler) Album(ctx context.Context, intent AlbumIntent) (*AlbumRecord, error) {
	albumPrompt := strings.TrimSpace(intent.MusicPrompt)
	n := len(intent.Tracks)
	if n > 0 {
		var invalid []string
		for i, track := range intent.Tracks {
			if strings.TrimSpace(track.MusicPrompt) == "" && albumPrompt == "" {
				invalid = append(invalid, fmt.Sprint(i+1))
			}
		}
		if len(invalid) > 0 {
			return nil, &ValidationError{Reason: "music_prompt is required for album tracks: " + strings.Join(invalid, ", ")}
		}
	} else {
		if albumPrompt == "" {
			return nil, &ValidationError{Reason: "album music_prompt or per-track prompts are required"}
		}
		n = intent.NumSongs
		if n < minAlbumSongs || n > maxAlbumSongs {
			return nil, &ValidationError{Reason: fmt.Sprintf("num_songs must be between %d and %d", minAlbumSongs, maxAlbumSongs)}
		}
	}

	if albumPrompt == "" {
		prompts := make([]string, 0, 3)
		for _, track := range intent.Tracks[:min(3, len(intent.Tracks))] {
			prompts = append(prompts, track.MusicPrompt)
		}
		albumPrompt = strings.Join(prompts, " | ")
	}

	genres := combineGenres(intent.Genres, intent.Tracks)

	title := strings.TrimSpace(intent.Title)
	if title == "" {
		var err error
		title, err = a.suggester.Suggest(ctx, &suggest.Request{
			Field:   suggest.Title,
			Context: suggest.Context{MusicPrompt: albumPrompt, Genres: genres},
		})
		if err != nil {
			return nil, fmt.Errorf("assemble: suggest album title: %w", err)
		}
	}

	cover := a.catalog.SelectCover(genres)
	used := map[string]bool{}
	tracks := make([]TrackRecord, 0, n)
	for i := 0; i < n; i++ {
		trackIntent := a.resolveTrack(intent, albumPrompt, genres, i)
		record, err := a.Song(ctx, trackIntent, used)
		if err != nil {
			return nil, err
		}
		record.TrackNumber = i + 1
		// Album tracks share the album cover.
		record.CoverArtURL = cover
		tracks = append(tracks, *record)
	}

	return &AlbumRecord{
		Title:       title,
		MusicPrompt: albumPrompt,
		Genres:      genres,
		CoverArtURL: cover,
		Tracks:      tracks,
	}, nil
}

// resolveTrack applies per-track overrides over album defaults. When the
// prompt is inherited from the album, a mood-variation suffix is appended
// so defaulted tracks stay mutually distinct.
func (a *Assembler) resolveTrack(intent AlbumIntent, albumPrompt string, genres []string, i int) TrackIntent {
	if i < len(intent.Tracks) {
		track := intent.Tracks[i]
		out := TrackIntent{
			Title:             strings.TrimSpace(track.Title),
			MusicPrompt:       strings.TrimSpace(track.MusicPrompt),
			Genres:            cloneOr(track.Genres, genres),
			DurationSeconds:   track.DurationSeconds,
			VocalLanguages:    cloneOr(track.VocalLanguages, intent.VocalLanguages),
			Lyrics:            firstNonEmpty(track.Lyrics, intent.Lyrics),
			ArtistInspiration: firstNonEmpty(track.ArtistInspiration, intent.ArtistInspiration),
			VideoStyle:        firstNonEmpty(track.VideoStyle, intent.VideoStyle),
		}
		if out.MusicPrompt == "" {
			out.MusicPrompt = moodPrompt(albumPrompt, i)
		}
		if out.DurationSeconds <= 0 {
			out.DurationSeconds = defaultTrackDuration
		}
		return out
	}
	return TrackIntent{
		MusicPrompt:       moodPrompt(albumPrompt, i),
		Genres:            cloneOr(nil, genres),
		DurationSeconds:   defaultTrackDuration,
		VocalLanguages:    cloneOr(nil, intent.VocalLanguages),
		Lyrics:            intent.Lyrics,
		ArtistInspiration: intent.ArtistInspiration,
		VideoStyle:        intent.VideoStyle,
	}
}

func moodPrompt(albumPrompt string, i int) string {
	return fmt.Sprintf("%s (%s)", albumPrompt, trackMoods[i%len(trackMoods)])
}

func (a *Assembler) logf(format string, args ...any) {
	if !a.debug {
		return
	}
	log.Printf(format+"\n", args...)
}

func fieldContext(intent TrackIntent) suggest.Context {
	return suggest.Context{
		Title:             intent.Title,
		MusicPrompt:       intent.MusicPrompt,
		Genres:            intent.Genres,
		VocalLanguages:    intent.VocalLanguages,
		Lyrics:            intent.Lyrics,
		ArtistInspiration: intent.ArtistInspiration,
		VideoStyle:        intent.VideoStyle,
		DurationSeconds:   intent.DurationSeconds,
	}
}

func wantsVocals(languages []string) bool {
	if len(languages) == 0 {
		return false
	}
	for _, l := range languages {
		if l == "Instrumental" {
			return false
		}
	}
	return true
}

func combineGenres(albumGenres []string, tracks []TrackIntent) []string {
	out := append([]string(nil), albumGenres...)
	seen := map[string]bool{}
	for _, g := range out {
		seen[g] = true
	}
	for _, track := range tracks {
		for _, g := range track.Genres {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

func cloneOr(primary, fallback []string) []string {
	src := primary
	if len(src) == 0 {
		src = fallback
	}
	return append([]string(nil), src...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
