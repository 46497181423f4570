package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	reDisallowed    = regexp.MustCompile(`[^a-z0-9\s-]`)
	reWhitespaceRun = regexp.MustCompile(`\s+`)
	reHyphenRun     = regexp.MustCompile(`-+`)
)

// usernameFromName transliterates a display name into a URL-safe username:
// lowercase ASCII, diacritics stripped, whitespace runs folded to single
// hyphens. "Łukasz Żółć" becomes "lukasz-zolc".
func usernameFromName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	ascii, _, err := transform.String(stripDiacritics, lowered)
	if err != nil {
		ascii = lowered
	}
	// Polish ł carries a stroke, not a combining mark, so NFD leaves it.
	ascii = strings.ReplaceAll(ascii, "ł", "l")

	ascii = reDisallowed.ReplaceAllString(ascii, "")
	ascii = reWhitespaceRun.ReplaceAllString(ascii, "-")
	ascii = reHyphenRun.ReplaceAllString(ascii, "-")
	return strings.Trim(ascii, "-")
}

// collisionSuffix disambiguates a taken username with the last 4 digits of
// the current timestamp.
func collisionSuffix(base string, now time.Time) string {
	stamp := fmt.Sprintf("%d", now.UnixMilli())
	return base + "-" + stamp[len(stamp)-4:]
}
