package suggest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Durations outside this range are clamped rather than rejected.
const (
	minDurationSeconds = 10
	maxDurationSeconds = 72000
)

var (
	hourPart   = regexp.MustCompile(`(\d+)\s*h`)
	minutePart = regexp.MustCompile(`(\d+)\s*m`)
	secondPart = regexp.MustCompile(`(\d+)\s*s`)
)

// ParseDuration accepts the forms a duration suggestion may take: bare
// seconds ("90"), colon notation ("2:30", "1:02:30") and unit notation
// ("30s", "2m10s", "1h"). It returns the total seconds before clamping.
func ParseDuration(text string) (int, bool) {
	raw := strings.ToLower(strings.TrimSpace(text))
	if raw == "" {
		return 0, false
	}
	// Only the first line matters; later lines tend to be explanations.
	raw = strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])

	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return 0, false
		}
		total := 0
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return 0, false
			}
			total = total*60 + n
		}
		return total, true
	}
	h := hourPart.FindStringSubmatch(raw)
	m := minutePart.FindStringSubmatch(raw)
	s := secondPart.FindStringSubmatch(raw)
	if h == nil && m == nil && s == nil {
		return 0, false
	}
	total := 0
	if h != nil {
		n, _ := strconv.Atoi(h[1])
		total += n * 3600
	}
	if m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
	}
	if s != nil {
		n, _ := strconv.Atoi(s[1])
		total += n
	}
	if total == 0 {
		return 0, false
	}
	return total, true
}

// FormatDuration renders seconds in the compact unit notation used across
// the app: 45 -> "45s", 120 -> "2m", 150 -> "2m30s".
func FormatDuration(seconds int) string {
	seconds = ClampDuration(seconds)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes, rem := seconds/60, seconds%60
	if rem == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, rem)
}

// ClampDuration bounds seconds into the supported range.
func ClampDuration(seconds int) int {
	if seconds < minDurationSeconds {
		return minDurationSeconds
	}
	if seconds > maxDurationSeconds {
		return maxDurationSeconds
	}
	return seconds
}

// NormalizeDuration parses and reformats a duration suggestion, returning
// the empty string when the text is not a duration at all.
func NormalizeDuration(text string) string {
	seconds, ok := ParseDuration(text)
	if !ok {
		return ""
	}
	return FormatDuration(seconds)
}
