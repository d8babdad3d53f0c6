package filestore

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Munger turns a client supplied filename into a storage safe one. Keys are
// built from munged names; BuildKey itself never alters a filename.
type Munger func(string) string

var (
	disallowedChars       = regexp.MustCompile(`[^a-zA-Z0-9_. -]`)
	disallowedLegacyChars = regexp.MustCompile(`[^a-zA-Z0-9.\- ]`)
	repeatedDashes        = regexp.MustCompile(`-+`)
	windowsSeparator      = strings.NewReplacer(`\`, "/")

	asciiEquivalents = strings.NewReplacer(
		"Æ", "Ae", "æ", "ae", "Ø", "O", "ø", "o", "Œ", "OE", "œ", "oe",
		"ß", "ss", "Þ", "Th", "þ", "th", "Ð", "D", "ð", "d", "Ł", "L", "ł", "l",
	)
)

// MungeFilename is the resource filename rule: base name only, lower case,
// characters outside [a-z0-9_. -] dropped, spaces to dashes, dashes collapsed,
// extension kept (at most 21 chars) and the whole name padded or cut to
// 3..100 characters.
func MungeFilename(filename string) string {
	filename = path.Base(windowsSeparator.Replace(filename))
	filename = strings.TrimSpace(strings.ToLower(toASCII(filename)))
	filename = strings.ReplaceAll(disallowedChars.ReplaceAllString(filename, ""), " ", "-")
	filename = repeatedDashes.ReplaceAllString(filename, "-")

	ext := path.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	if len(ext) > 21 {
		ext = ext[:21]
	}
	name = mungeToLength(name, max(3-len(ext), 1), 100-len(ext))
	return name + ext
}

// MungeFilenameLegacy is the rule applied to general uploads. It keeps case
// and does not split off the extension.
func MungeFilenameLegacy(filename string) string {
	filename = strings.TrimSpace(toASCII(filename))
	filename = strings.ReplaceAll(disallowedLegacyChars.ReplaceAllString(filename, ""), " ", "-")
	return mungeToLength(filename, 3, 100)
}

func mungeToLength(s string, minLength, maxLength int) string {
	if len(s) < minLength {
		s += strings.Repeat("_", minLength-len(s))
	}
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return s
}

func toASCII(s string) string {
	s = asciiEquivalents.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// timestampedName prefixes name with the UTC time in the "2006-01-02 15:04:05"
// layout, with microseconds appended only when non-zero. Munging turns the
// result into e.g. "2001-01-29-000000somename.png".
func timestampedName(now time.Time, name string) string {
	now = now.UTC()
	stamp := now.Format("2006-01-02 15:04:05")
	if us := now.Nanosecond() / 1000; us != 0 {
		stamp += fmt.Sprintf(".%06d", us)
	}
	return stamp + name
}
