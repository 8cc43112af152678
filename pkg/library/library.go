// Package library binds track intents to entries of a static, curated
// audio and cover-art catalog.
package library

import (
	"crypto/sha256"
	"embed"
	"encoding/binary"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/musewave/musewave/pkg/seed"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Track is one playable entry of the audio catalog.
type Track struct {
	URL      string `yaml:"url" csv:"url"`
	Title    string `yaml:"title" csv:"title"`
	Duration int    `yaml:"duration" csv:"duration"`
}

// Match is the outcome of binding an intent to catalog assets.
// Accuracy is always within [65, 100], even for degenerate inputs.
type Match struct {
	AudioURL    string
	CoverArtURL string
	Accuracy    int
	IsFallback  bool
}

// Intent carries the creative fields that influence asset choice.
type Intent struct {
	MusicPrompt       string
	ArtistInspiration string
	Lyrics            string
	Genres            []string
	DurationSeconds   int
}

// Library is the read-only catalog plus any imported extensions. Safe for
// concurrent readers once built.
type Library struct {
	audio  map[string][]Track
	covers map[string][]string
}

// New loads the embedded catalog.
func New() (*Library, error) {
	l := &Library{}
	if err := loadYAML("data/audio.yaml", &l.audio); err != nil {
		return nil, err
	}
	if err := loadYAML("data/covers.yaml", &l.covers); err != nil {
		return nil, err
	}
	return l, nil
}

func loadYAML(name string, v any) error {
	b, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("library: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("library: parse %s: %w", name, err)
	}
	return nil
}

type csvTrack struct {
	Category string `csv:"category"`
	URL      string `csv:"url"`
	Title    string `csv:"title"`
	Duration int    `csv:"duration"`
}

// ImportAudioCSV extends the audio catalog with rows from a user-provided
// CSV file (columns: category, url, title, duration).
func (l *Library) ImportAudioCSV(r io.Reader) error {
	var rows []csvTrack
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return fmt.Errorf("library: parse csv: %w", err)
	}
	for _, row := range rows {
		category := strings.ToLower(strings.TrimSpace(row.Category))
		if category == "" {
			category = "default"
		}
		if row.URL == "" {
			return fmt.Errorf("library: csv row missing url")
		}
		l.audio[category] = append(l.audio[category], Track{
			URL:      row.URL,
			Title:    row.Title,
			Duration: row.Duration,
		})
	}
	return nil
}

// categoryTable maps canonical genres to catalog buckets. Order matters:
// the first bucket containing any of the intent's genres wins.
var categoryTable = []struct {
	name   string
	genres []string
}{
	{"electronic", []string{"Electronic", "House", "Techno", "Trance", "Dubstep", "EDM", "Synthwave", "Future Bass", "Deep House"}},
	{"ambient", []string{"Ambient", "Drone", "Dark Ambient", "Chillwave", "IDM", "Minimalist"}},
	{"rock", []string{"Rock", "Metal", "Indie", "Post-Rock", "Shoegaze", "Post-Punk"}},
	{"hip_hop", []string{"Hip-Hop", "Trap", "Drill", "Cloud Rap", "R&B"}},
	{"cinematic", []string{"Cinematic", "Orchestral", "Epic", "Film Score", "Classical", "Neo-Classical"}},
	{"jazz", []string{"Jazz", "Soul", "Funk", "Blues"}},
	{"pop", []string{"Pop", "K-Pop", "J-Pop", "Disco", "Bedroom Pop"}},
	{"lofi", []string{"Lo-fi", "Chillwave", "Vaporwave"}},
	{"classical", []string{"Classical", "Orchestral", "Piano"}},
}

// Category maps a genre list to its catalog bucket, "default" when no
// genre is recognized.
func Category(genres []string) string {
	for _, bucket := range categoryTable {
		for _, g := range bucket.genres {
			for _, want := range genres {
				if g == want {
					return bucket.name
				}
			}
		}
	}
	return "default"
}

// Select binds the intent to one audio track and one cover. It prefers
// tracks whose URL is absent from used; when the whole bucket is already
// used it falls back to allowing reuse instead of failing. The chosen
// base URL is added to used so later calls in the same batch avoid it.
func (l *Library) Select(intent Intent, used map[string]bool) Match {
	if used == nil {
		used = map[string]bool{}
	}
	category := Category(intent.Genres)
	bucket := l.audio[category]
	if len(bucket) == 0 {
		bucket = l.audio["default"]
	}

	pool := make([]Track, 0, len(bucket))
	for _, t := range bucket {
		if !used[t.URL] {
			pool = append(pool, t)
		}
	}
	fallback := len(pool) == 0
	if fallback {
		pool = bucket
	}

	duration := clampSeconds(intent.DurationSeconds)
	signature := strings.Join([]string{
		category,
		intent.MusicPrompt,
		intent.ArtistInspiration,
		truncate(intent.Lyrics, 80),
		fmt.Sprint(duration),
		seed.New(),
	}, "|")

	best, bestScore := pool[0], -1.0
	for _, t := range pool {
		trackDuration := t.Duration
		if trackDuration <= 0 {
			trackDuration = duration
		}
		score := durationCloseness(trackDuration, duration)*2.0 +
			float64(contextHits(intent, t.Title)) +
			tieBreaker(signature, t.URL)
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	used[best.URL] = true

	return Match{
		AudioURL:    uniqueURL(best.URL),
		CoverArtURL: l.selectCover(category),
		Accuracy:    accuracy(best, intent, category, fallback),
		IsFallback:  fallback,
	}
}

// SelectCover picks a cover for the genre list without consuming an
// audio track.
func (l *Library) SelectCover(genres []string) string {
	return l.selectCover(Category(genres))
}

func (l *Library) selectCover(category string) string {
	covers := l.covers[category]
	if len(covers) == 0 {
		covers = l.covers["default"]
	}
	if len(covers) == 0 {
		return ""
	}
	return covers[seed.Pick(seed.New(), "cover", len(covers))]
}

// accuracy weighs genre match (40%), duration closeness (30%), catalog
// metadata quality (20%) and repeat avoidance (10%), clamped to [65, 100].
func accuracy(t Track, intent Intent, category string, fallback bool) int {
	score := 0.2
	if category != "default" {
		score = 0.4
	}
	if intent.DurationSeconds > 0 && t.Duration > 0 {
		score += durationCloseness(t.Duration, clampSeconds(intent.DurationSeconds)) * 0.3
	} else {
		score += 0.3
	}
	if title := strings.TrimSpace(t.Title); len(title) > 3 && !isDigits(title) {
		score += 0.2
	}
	if !fallback {
		score += 0.1
	}
	pct := int(score * 100)
	if pct > 100 {
		pct = 100
	}
	if pct < 65 {
		pct = 65
	}
	return pct
}

func durationCloseness(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	max := a
	if b > max {
		max = b
	}
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	return 1.0 - float64(delta)/float64(max)
}

var moodGroups = map[string][]string{
	"dark":      {"dark", "night", "midnight", "shadow", "moody"},
	"energy":    {"energy", "power", "drive", "pulse", "rush", "drop"},
	"calm":      {"calm", "ambient", "chill", "lofi", "peaceful", "soft"},
	"cinematic": {"cinematic", "epic", "orchestral", "score", "drama"},
	"urban":     {"street", "urban", "beat", "bass", "flow"},
	"uplift":    {"uplift", "inspire", "summer", "feel", "dream"},
}

// contextHits counts mood groups present in both the intent text and the
// catalog track title.
func contextHits(intent Intent, title string) int {
	text := strings.ToLower(strings.Join([]string{
		intent.MusicPrompt,
		intent.ArtistInspiration,
		intent.Lyrics,
		strings.Join(intent.Genres, " "),
	}, " "))
	title = strings.ToLower(title)
	hits := 0
	for _, tokens := range moodGroups {
		inText, inTitle := false, false
		for _, tok := range tokens {
			inText = inText || strings.Contains(text, tok)
			inTitle = inTitle || strings.Contains(title, tok)
		}
		if inText && inTitle {
			hits++
		}
	}
	return hits
}

func tieBreaker(signature, trackURL string) float64 {
	sum := sha256.Sum256([]byte(signature + "|" + trackURL))
	return float64(binary.BigEndian.Uint32(sum[:4])) / float64(1<<32)
}

// uniqueURL tags known demo hosts with a per-generation token so repeated
// selections of the same catalog entry stay distinguishable downstream.
func uniqueURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Host)
	if host != "www.soundhelix.com" && host != "images.unsplash.com" {
		return raw
	}
	q := u.Query()
	q.Set("mwv", fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102150405"), strings.ToLower(ulid.Make().String()[:8])))
	u.RawQuery = q.Encode()
	return u.String()
}

func clampSeconds(v int) int {
	if v < 10 {
		return 10
	}
	if v > 72000 {
		return 72000
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
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
