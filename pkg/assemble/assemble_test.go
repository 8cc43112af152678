package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/musewave/musewave/pkg/knowledge"
	"github.com/musewave/musewave/pkg/library"
	"github.com/musewave/musewave/pkg/suggest"
)

// fieldGenerator answers each suggestion with a canned, valid response for
// the requested field.
type fieldGenerator struct {
	calls  int
	fields []string
}

func (g *fieldGenerator) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	g.calls++
	field, _, _ := strings.Cut(strings.TrimPrefix(user, "Field: "), "\n")
	g.fields = append(g.fields, field)
	switch field {
	case "title":
		return fmt.Sprintf("Neon Drift %d", g.calls), nil
	case "lyrics":
		return "A hook about late-night clarity with images of city lights on wet roads and distant trains.", nil
	default:
		return "", fmt.Errorf("unexpected field %q", field)
	}
}

func newAssembler(t *testing.T, gen suggest.Generator) *Assembler {
	t.Helper()
	kb, err := knowledge.New()
	if err != nil {
		t.Fatalf("knowledge.New() err = %v; want nil", err)
	}
	catalog, err := library.New()
	if err != nil {
		t.Fatalf("library.New() err = %v; want nil", err)
	}
	return New(suggest.New(kb, gen), catalog)
}

func TestSongRequiresMusicPrompt(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	_, err := a.Song(context.Background(), TrackIntent{Title: "Nightfall"}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Song() err = %v; want *ValidationError", err)
	}
	if !strings.Contains(verr.Reason, "music_prompt") {
		t.Fatalf("ValidationError reason %q does not mention music_prompt", verr.Reason)
	}
}

func TestSongFillsMissingFields(t *testing.T) {
	gen := &fieldGenerator{}
	a := newAssembler(t, gen)
	record, err := a.Song(context.Background(), TrackIntent{
		MusicPrompt:     "deep atmospheric electronic with cinematic drums",
		Genres:          []string{"Electronic"},
		VocalLanguages:  []string{"English"},
		DurationSeconds: 30,
	}, nil)
	if err != nil {
		t.Fatalf("Song() err = %v; want nil", err)
	}
	if record.Title == "" {
		t.Fatal("Song() left title empty with healthy generator")
	}
	if record.Lyrics == "" {
		t.Fatal("Song() left lyrics empty for vocal track")
	}
	if record.AudioURL == "" || record.CoverArtURL == "" {
		t.Fatal("Song() returned empty asset URLs")
	}
	if record.Accuracy < 65 || record.Accuracy > 100 {
		t.Fatalf("Song() accuracy = %d; want within [65, 100]", record.Accuracy)
	}
}

func TestSongInstrumentalSkipsLyrics(t *testing.T) {
	gen := &fieldGenerator{}
	a := newAssembler(t, gen)
	record, err := a.Song(context.Background(), TrackIntent{
		MusicPrompt:    "slow ambient drone with granular textures and tape hiss",
		Genres:         []string{"Ambient"},
		VocalLanguages: []string{"Instrumental"},
	}, nil)
	if err != nil {
		t.Fatalf("Song() err = %v; want nil", err)
	}
	if record.Lyrics != "" {
		t.Fatalf("Song() lyrics = %q; want empty for instrumental track", record.Lyrics)
	}
	for _, f := range gen.fields {
		if f == "lyrics" {
			t.Fatal("Song() requested lyrics for an instrumental track")
		}
	}
}

func TestAlbumDenseTrackNumbers(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	album, err := a.Album(context.Background(), AlbumIntent{
		MusicPrompt: "concept album about digital nostalgia",
		Genres:      []string{"Electronic"},
		NumSongs:    4,
	})
	if err != nil {
		t.Fatalf("Album() err = %v; want nil", err)
	}
	if len(album.Tracks) != 4 {
		t.Fatalf("Album() tracks = %d; want 4", len(album.Tracks))
	}
	for i, track := range album.Tracks {
		if track.TrackNumber != i+1 {
			t.Fatalf("track %d number = %d; want %d", i, track.TrackNumber, i+1)
		}
	}
}

func TestAlbumMoodVariations(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	base := "concept album about digital nostalgia"
	album, err := a.Album(context.Background(), AlbumIntent{
		MusicPrompt: base,
		Genres:      []string{"Electronic"},
		NumSongs:    3,
	})
	if err != nil {
		t.Fatalf("Album() err = %v; want nil", err)
	}
	seen := map[string]bool{}
	for _, track := range album.Tracks {
		if !strings.HasPrefix(track.MusicPrompt, base+" (") {
			t.Fatalf("track prompt %q missing album base and mood suffix", track.MusicPrompt)
		}
		if seen[track.MusicPrompt] {
			t.Fatalf("mood suffix reused within a short album: %q", track.MusicPrompt)
		}
		seen[track.MusicPrompt] = true
	}
}

func TestAlbumNumSongsBounds(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	for _, n := range []int{0, 1, 11} {
		_, err := a.Album(context.Background(), AlbumIntent{
			MusicPrompt: "synthwave retrospective",
			NumSongs:    n,
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Album(num_songs=%d) err = %v; want *ValidationError", n, err)
		}
	}
}

func TestAlbumPerTrackOverrides(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	album, err := a.Album(context.Background(), AlbumIntent{
		Title:          "Wired Nights",
		VocalLanguages: []string{"English"},
		Genres:         []string{"Electronic"},
		Tracks: []TrackIntent{
			{MusicPrompt: "fast acid techno with squelching 303 lines", Genres: []string{"Techno"}},
			{MusicPrompt: "half-time dub techno with cavernous delays"},
		},
	})
	if err != nil {
		t.Fatalf("Album() err = %v; want nil", err)
	}
	if album.Title != "Wired Nights" {
		t.Fatalf("Album() title = %q; want caller-provided title kept", album.Title)
	}
	if got := album.Tracks[0].Genres; len(got) != 1 || got[0] != "Techno" {
		t.Fatalf("track 1 genres = %v; want override [Techno]", got)
	}
	if got := album.Tracks[1].Genres; len(got) != 2 || got[0] != "Electronic" {
		t.Fatalf("track 2 genres = %v; want inherited combined genres", got)
	}
	if got := album.Tracks[1].VocalLanguages; len(got) != 1 || got[0] != "English" {
		t.Fatalf("track 2 languages = %v; want inherited [English]", got)
	}
	want := []string{"Electronic", "Techno"}
	if strings.Join(album.Genres, ",") != strings.Join(want, ",") {
		t.Fatalf("Album() genres = %v; want %v", album.Genres, want)
	}
}

func TestAlbumFailsAtomically(t *testing.T) {
	gen := &fieldGenerator{}
	a := newAssembler(t, gen)
	_, err := a.Album(context.Background(), AlbumIntent{
		Tracks: []TrackIntent{
			{MusicPrompt: "bright funk with slap bass"},
			{},
		},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Album() err = %v; want *ValidationError", err)
	}
	if !strings.Contains(verr.Reason, "2") {
		t.Fatalf("ValidationError reason %q does not name the invalid track", verr.Reason)
	}
	if gen.calls != 0 {
		t.Fatalf("Album() made %d generation calls before validation; want 0", gen.calls)
	}
}

func TestAlbumAvoidsAssetRepeats(t *testing.T) {
	a := newAssembler(t, &fieldGenerator{})
	album, err := a.Album(context.Background(), AlbumIntent{
		MusicPrompt: "late night warehouse set",
		Genres:      []string{"Electronic"},
		NumSongs:    4,
	})
	if err != nil {
		t.Fatalf("Album() err = %v; want nil", err)
	}
	seen := map[string]bool{}
	for _, track := range album.Tracks {
		base := strings.SplitN(track.AudioURL, "?", 2)[0]
		if seen[base] {
			t.Fatalf("album reused audio asset %q", base)
		}
		seen[base] = true
	}
}

func TestCopyTrackFields(t *testing.T) {
	src := TrackIntent{
		Title:          "Nightfall",
		MusicPrompt:    "moody downtempo with subterranean bass",
		Genres:         []string{"Electronic", "Ambient"},
		VocalLanguages: []string{"English"},
		Lyrics:         "a slow goodbye",
	}
	dst := TrackIntent{
		Title:       "Daybreak",
		MusicPrompt: "bright morning house",
		Genres:      []string{"House"},
	}

	t.Run("all appends variation suffix", func(t *testing.T) {
		out, err := CopyTrackFields(CopyAll, src, dst)
		if err != nil {
			t.Fatalf("CopyTrackFields(all) err = %v; want nil", err)
		}
		if out.Title != "Nightfall (Variation)" {
			t.Fatalf("title = %q; want %q", out.Title, "Nightfall (Variation)")
		}
		if out.MusicPrompt != src.MusicPrompt || out.Lyrics != src.Lyrics {
			t.Fatal("all mode did not copy every field")
		}
	})

	t.Run("all keeps empty title empty", func(t *testing.T) {
		untitled := src
		untitled.Title = ""
		out, err := CopyTrackFields(CopyAll, untitled, dst)
		if err != nil {
			t.Fatalf("CopyTrackFields(all) err = %v; want nil", err)
		}
		if out.Title != "" {
			t.Fatalf("title = %q; want empty", out.Title)
		}
	})

	t.Run("style copies prompt genres languages only", func(t *testing.T) {
		out, err := CopyTrackFields(CopyStyle, src, dst)
		if err != nil {
			t.Fatalf("CopyTrackFields(style) err = %v; want nil", err)
		}
		if out.Title != "Daybreak" {
			t.Fatalf("title = %q; want destination title kept", out.Title)
		}
		if out.MusicPrompt != src.MusicPrompt {
			t.Fatal("style mode did not copy music prompt")
		}
		if len(out.Genres) != 2 || len(out.VocalLanguages) != 1 {
			t.Fatal("style mode did not copy genres and languages")
		}
	})

	t.Run("genres never aliases source", func(t *testing.T) {
		out, err := CopyTrackFields(CopyGenres, src, dst)
		if err != nil {
			t.Fatalf("CopyTrackFields(genres) err = %v; want nil", err)
		}
		out.Genres[0] = "Mutated"
		if src.Genres[0] != "Electronic" {
			t.Fatal("mutating the copy changed the source genres")
		}
	})

	t.Run("languages only", func(t *testing.T) {
		out, err := CopyTrackFields(CopyLanguages, src, dst)
		if err != nil {
			t.Fatalf("CopyTrackFields(languages) err = %v; want nil", err)
		}
		if out.MusicPrompt != dst.MusicPrompt || len(out.VocalLanguages) != 1 {
			t.Fatal("languages mode copied the wrong fields")
		}
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		if _, err := CopyTrackFields("everything", src, dst); err == nil {
			t.Fatal("CopyTrackFields(everything) err = nil; want error")
		}
	})
}
