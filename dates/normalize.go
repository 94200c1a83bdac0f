// Package dates converts the relative publication phrases shown on listing
// pages ("il y a 3 heures", "Publiée il y a 2 jours") into absolute times.
package dates

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unit is a recognized time unit keyword.
type Unit struct {
	Keyword  string
	Duration time.Duration
}

// Units lists the recognized keywords in match priority order. Matching is by
// substring, so "heures" matches "heure" and "jours" matches "jour".
var Units = []Unit{
	{Keyword: "heure", Duration: time.Hour},
	{Keyword: "jour", Duration: 24 * time.Hour},
	{Keyword: "minute", Duration: time.Minute},
}

var lower = cases.Lower(language.French)

// fold lower-cases text and strips diacritics so that "Publiée" and "publiee"
// compare equal.
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower.String(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// firstNumber returns the first maximal run of ASCII digits in text.
func firstNumber(text string) (int, bool) {
	start := strings.IndexFunc(text, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(text) && isDigit(rune(text[end])) {
		end++
	}
	n, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Parse converts a relative-time phrase into an absolute time, measured back
// from now. It returns nil when text is empty, has no number, or names no
// recognized unit. Phrases like "à l'instant" or "aujourd'hui" therefore
// yield nil rather than now.
func Parse(text string, now time.Time) *time.Time {
	if text == "" {
		return nil
	}

	folded := fold(text)

	n, ok := firstNumber(folded)
	if !ok {
		return nil
	}

	for _, unit := range Units {
		if strings.Contains(folded, unit.Keyword) {
			if int64(n) > math.MaxInt64/int64(unit.Duration) {
				return nil
			}
			t := now.Add(-time.Duration(n) * unit.Duration)
			return &t
		}
	}

	return nil
}

// Normalize is Parse for an optional phrase. A nil text yields nil.
func Normalize(text *string, now time.Time) *time.Time {
	if text == nil {
		return nil
	}
	return Parse(*text, now)
}
