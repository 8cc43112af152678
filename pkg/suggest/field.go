package suggest

// Field identifies one of the creative form fields a suggestion can target.
type Field string

const (
	Title             Field = "title"
	MusicPrompt       Field = "music_prompt"
	Genres            Field = "genres"
	Lyrics            Field = "lyrics"
	ArtistInspiration Field = "artist_inspiration"
	VideoStyle        Field = "video_style"
	VocalLanguages    Field = "vocal_languages"
	Duration          Field = "duration"
)

// Fields lists every valid field, in form order.
var Fields = []Field{
	Title,
	MusicPrompt,
	Genres,
	Lyrics,
	ArtistInspiration,
	VideoStyle,
	VocalLanguages,
	Duration,
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	for _, v := range Fields {
		if f == v {
			return true
		}
	}
	return false
}

// fieldConfig carries the per-field generation and validation policy.
type fieldConfig struct {
	minWords    int
	maxItems    int
	temperature float32
	maxTokens   int
	freeText    bool // domain-specificity layer applies
	list        bool // enumerated-value layer applies
}

var fieldConfigs = map[Field]fieldConfig{
	Title:             {minWords: 1, temperature: 1.05, maxTokens: 60, freeText: true},
	MusicPrompt:       {minWords: 5, temperature: 0.95, maxTokens: 300, freeText: true},
	Genres:            {maxItems: 4, temperature: 0.55, maxTokens: 60, list: true},
	Lyrics:            {minWords: 10, temperature: 1.0, maxTokens: 400, freeText: true},
	ArtistInspiration: {minWords: 3, maxItems: 4, temperature: 0.55, maxTokens: 80},
	VideoStyle:        {minWords: 10, temperature: 0.95, maxTokens: 220, freeText: true},
	VocalLanguages:    {maxItems: 3, temperature: 0.35, maxTokens: 40, list: true},
	Duration:          {temperature: 0.2, maxTokens: 20},
}

// Context carries the sibling field values used to keep suggestions for one
// field consistent with the rest of the form. It is created per call and
// never shared across requests.
type Context struct {
	Title             string   `json:"title,omitempty"`
	MusicPrompt       string   `json:"music_prompt,omitempty"`
	Genres            []string `json:"genres,omitempty"`
	VocalLanguages    []string `json:"vocal_languages,omitempty"`
	Lyrics            string   `json:"lyrics,omitempty"`
	ArtistInspiration string   `json:"artist_inspiration,omitempty"`
	VideoStyle        string   `json:"video_style,omitempty"`
	AlbumContext      string   `json:"album_context,omitempty"`
	TrackNumber       int      `json:"track_number,omitempty"`
	DurationSeconds   int      `json:"duration_seconds,omitempty"`
}

// Request is a single suggestion request. Recent holds suggestions already
// produced within the caller's scope; the engine avoids repeating them.
type Request struct {
	Field        Field
	CurrentValue string
	Context      Context
	Recent       []string
}
