package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses interior whitespace runs
// to single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName cleans a display name. Case and diacritics are preserved;
// the booking stores the name exactly as the client gave it.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeNotes cleans free-form booking notes.
func NormalizeNotes(notes string) string {
	return TrimAndNormalize(notes)
}
