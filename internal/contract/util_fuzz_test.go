package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateText fuzzes TruncateText with random text and widths.
func FuzzTruncateText(f *testing.F) {
	seeds := []struct {
		text  string
		width int
	}{
		{"does omega-3 improve my focus", 10},
		{"", 0},
		{"schlaf über alles", 8},
		{"abc", -1},
	}
	for _, seed := range seeds {
		f.Add(seed.text, seed.width)
	}

	f.Fuzz(func(t *testing.T, text string, width int) {
		if !utf8.ValidString(text) {
			return
		}
		result := TruncateText(text, width)
		if width > 3 && utf8.RuneCountInString(result) > width {
			t.Errorf("TruncateText(%q, %d) = %q exceeds width", text, width, result)
		}
	})
}
