// Package identity derives login usernames for teacher onboarding.
package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips diacritics and apostrophes, trims.
func normalize(s string) string {
	out, _, err := transform.String(deaccent, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '’', '`':
			return -1
		}
		return r
	}, out)
	return strings.ToLower(strings.TrimSpace(out))
}

// Username derives "f.surname" from a teacher's name: lowercase first
// initial, dot, surname with diacritics/apostrophes stripped and internal
// whitespace removed. Deterministic, so re-running onboarding yields the
// same login.
func Username(name, surname string) string {
	n := normalize(name)
	c := strings.Join(strings.Fields(normalize(surname)), "")
	initial := ""
	if n != "" {
		initial = string([]rune(n)[0])
	}
	return initial + "." + c
}

// Dedupe appends the teacher id when the derived username collides with a
// reserved administrative account.
func Dedupe(username string, teacherID int64, reserved []string) string {
	for _, r := range reserved {
		if strings.EqualFold(username, r) {
			return fmt.Sprintf("%s.%d", username, teacherID)
		}
	}
	return username
}
