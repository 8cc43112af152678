package knowledge

import "testing"

func TestCanonicalGenre(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Pop", "Pop", true},
		{"pop", "Pop", true},
		{"hip hop", "Hip-Hop", true},
		{"rnb", "R&B", true},
		{"lofi", "Lo-fi", true},
		{"dnb", "Drum and Bass", true},
		{"  techno  ", "Techno", true},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := b.CanonicalGenre(tt.in)
			if ok != tt.ok {
				t.Fatalf("CanonicalGenre(%q) ok = %v; want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("CanonicalGenre(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalLanguage(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"English", "English", true},
		{"mandarin", "Chinese (Mandarin)", true},
		{"brazilian portuguese", "Portuguese (Brazil)", true},
		{"Instrumental", "Instrumental", true},
		{"klingon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := b.CanonicalLanguage(tt.in)
			if ok != tt.ok {
				t.Fatalf("CanonicalLanguage(%q) ok = %v; want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("CanonicalLanguage(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenresSortedUnique(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	genres := b.Genres()
	if len(genres) == 0 {
		t.Fatal("Genres() is empty")
	}
	seen := map[string]bool{}
	prev := ""
	for _, g := range genres {
		if seen[g] {
			t.Fatalf("Genres() contains duplicate %q", g)
		}
		seen[g] = true
		if g < prev {
			t.Fatalf("Genres() not sorted: %q before %q", prev, g)
		}
		prev = g
	}
	if !b.IsGenre("Bollywood") {
		t.Fatal("IsGenre(Bollywood) = false; want true")
	}
	if !b.IsLanguage("english") {
		t.Fatal("IsLanguage(english) = false; want true")
	}
}
