package suggest

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"90", 90, true},
		{"30s", 30, true},
		{"2m10s", 130, true},
		{"1h", 3600, true},
		{"2:30", 150, true},
		{"1:02:30", 3750, true},
		{"2m", 120, true},
		{"about two minutes", 0, false},
		{"", 0, false},
		{"45s\nbecause it fits radio edits", 45, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDuration(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDuration(%q) ok = %v; want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("ParseDuration(%q) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{45, "45s"},
		{120, "2m"},
		{150, "2m30s"},
		{5, "10s"},       // clamped up
		{99999, "1200m"}, // clamped down to 72000s
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Fatalf("FormatDuration(%d) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
