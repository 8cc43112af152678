package assemble

import "fmt"

// CopyMode selects which fields a copy request carries over.
type CopyMode string

const (
	CopyAll       CopyMode = "all"
	CopyStyle     CopyMode = "style"
	CopyGenres    CopyMode = "genres"
	CopyLanguages CopyMode = "languages"
)

// CopyTrackFields returns a new intent for the destination track with the
// selected fields copied from the source. Pure: neither input is mutated
// and list fields are independent copies, never aliases.
func CopyTrackFields(mode CopyMode, src, dst TrackIntent) (TrackIntent, error) {
	switch mode {
	case CopyAll:
		out := src
		out.Genres = append([]string(nil), src.Genres...)
		out.VocalLanguages = append([]string(nil), src.VocalLanguages...)
		// A copied title always collides with the source, so non-empty
		// titles get a disambiguating suffix. This is a heuristic:
		// independently equal titles still collide.
		if out.Title != "" {
			out.Title += " (Variation)"
		}
		return out, nil
	case CopyStyle:
		out := dst
		out.MusicPrompt = src.MusicPrompt
		out.Genres = append([]string(nil), src.Genres...)
		out.VocalLanguages = append([]string(nil), src.VocalLanguages...)
		return out, nil
	case CopyGenres:
		out := dst
		out.Genres = append([]string(nil), src.Genres...)
		return out, nil
	case CopyLanguages:
		out := dst
		out.VocalLanguages = append([]string(nil), src.VocalLanguages...)
		return out, nil
	default:
		return TrackIntent{}, &ValidationError{Reason: fmt.Sprintf("unknown copy mode: %s", mode)}
	}
}
