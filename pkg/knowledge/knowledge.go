package knowledge

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Base holds the static enumerations of valid genres, languages, artists and
// video styles. It is loaded once at process start and is read-only afterwards,
// so it is safe for unlimited concurrent readers.
type Base struct {
	genreCategories map[string][]string
	genres          []string
	artists         []string
	languages       []string
	videoStyles     []string

	genreLookup    map[string]string
	languageLookup map[string]string
	artistLookup   map[string]string
}

// Common shorthand spellings mapped to their canonical entries.
var aliases = map[string]string{
	"mandarin":             "Chinese (Mandarin)",
	"cantonese":            "Chinese (Cantonese)",
	"brazilian portuguese": "Portuguese (Brazil)",
	"latam spanish":        "Spanish (Latin America)",
	"quebec french":        "French (Quebec)",
	"lofi":                 "Lo-fi",
	"lo fi":                "Lo-fi",
	"dnb":                  "Drum and Bass",
	"hip hop":              "Hip-Hop",
	"rnb":                  "R&B",
}

// New parses the embedded data files and builds the lookup tables.
func New() (*Base, error) {
	var categories map[string][]string
	if err := loadYAML("data/genres.yaml", &categories); err != nil {
		return nil, err
	}
	var artistCategories map[string][]string
	if err := loadYAML("data/artists.yaml", &artistCategories); err != nil {
		return nil, err
	}
	var languages []string
	if err := loadYAML("data/languages.yaml", &languages); err != nil {
		return nil, err
	}
	var videoStyles []string
	if err := loadYAML("data/video_styles.yaml", &videoStyles); err != nil {
		return nil, err
	}

	b := &Base{
		genreCategories: categories,
		genres:          flatten(categories),
		artists:         flatten(artistCategories),
		languages:       languages,
		videoStyles:     videoStyles,
	}
	b.genreLookup = lookup(b.genres)
	b.languageLookup = lookup(b.languages)
	b.artistLookup = lookup(b.artists)
	return b, nil
}

func loadYAML(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("knowledge: couldn't read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("knowledge: couldn't parse %s: %w", name, err)
	}
	return nil
}

func flatten(categories map[string][]string) []string {
	seen := map[string]bool{}
	var all []string
	for _, entries := range categories {
		for _, e := range entries {
			if seen[e] {
				continue
			}
			seen[e] = true
			all = append(all, e)
		}
	}
	sort.Strings(all)
	return all
}

func lookup(values []string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[strings.ToLower(v)] = v
	}
	return m
}

// Genres returns all known genre names, sorted and de-duplicated.
func (b *Base) Genres() []string { return b.genres }

// Languages returns all known vocal language names.
func (b *Base) Languages() []string { return b.languages }

// Artists returns all known artist reference names.
func (b *Base) Artists() []string { return b.artists }

// VideoStyles returns the preset video style descriptions.
func (b *Base) VideoStyles() []string { return b.videoStyles }

// IsGenre reports whether the value matches a known genre exactly,
// ignoring case.
func (b *Base) IsGenre(v string) bool {
	_, ok := b.genreLookup[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// IsLanguage reports whether the value matches a known language exactly,
// ignoring case.
func (b *Base) IsLanguage(v string) bool {
	_, ok := b.languageLookup[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// CanonicalGenre resolves a raw genre token to its canonical spelling.
func (b *Base) CanonicalGenre(v string) (string, bool) {
	return canonical(v, b.genres, b.genreLookup)
}

// CanonicalLanguage resolves a raw language token to its canonical spelling.
func (b *Base) CanonicalLanguage(v string) (string, bool) {
	return canonical(v, b.languages, b.languageLookup)
}

// CanonicalArtist resolves a raw artist token to its canonical spelling.
func (b *Base) CanonicalArtist(v string) (string, bool) {
	return canonical(v, b.artists, b.artistLookup)
}

func canonical(v string, choices []string, exact map[string]string) (string, bool) {
	token := strings.ToLower(strings.TrimSpace(v))
	if token == "" {
		return "", false
	}
	if match, ok := exact[token]; ok {
		return match, true
	}
	if alias, ok := aliases[token]; ok {
		if match, ok := exact[strings.ToLower(alias)]; ok {
			return match, true
		}
	}
	// Substring matching on tiny tokens produces absurd matches.
	if len(token) <= 2 {
		return "", false
	}
	for _, choice := range choices {
		c := strings.ToLower(choice)
		if strings.Contains(c, token) || strings.Contains(token, c) {
			return choice, true
		}
	}
	return "", false
}
