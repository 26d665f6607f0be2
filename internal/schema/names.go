package schema

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxIdentLen is the longest identifier NormalizeName emits. It matches the
// smallest limit among the supported databases (Postgres, 63 bytes).
const MaxIdentLen = 63

// NormalizeName turns arbitrary header text into a lowercase ASCII
// identifier: accents are stripped, space/dash/dot become '_', anything
// outside [a-z0-9_] is dropped, and long names keep their first 10 and last
// 53 bytes. An empty result becomes "col".
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	if len(name) > MaxIdentLen {
		name = name[:10] + name[len(name)-(MaxIdentLen-10):]
	}
	return name
}

// NormalizeNames applies NormalizeName to every name and disambiguates
// collisions with a numeric suffix (_2, _3, ...).
func NormalizeNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, n := range names {
		base := NormalizeName(n)
		name := base
		for k := 2; ; k++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = base + "_" + strconv.Itoa(k)
		}
		seen[name] = i
		out[i] = name
	}
	return out
}
