// Package textsort orders user-facing names the way the web client does:
// French collation that ignores case and diacritics, with emoji and other
// decorations stripped before comparison.
package textsort

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	mu       sync.Mutex
	collator = collate.New(language.French, collate.Loose)
)

// Key reduces a display name to its comparison form: pictographs and
// punctuation (everything except letters, digits, spaces, apostrophes and
// hyphens) become spaces, runs of whitespace collapse, and the result is
// lowercased.
func Key(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case r == 0xFE0F: // variation selector left behind by emoji
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-':
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Compare orders two display names, accent- and emoji-insensitively.
func Compare(a, b string) int {
	ka, kb := Key(a), Key(b)
	mu.Lock()
	defer mu.Unlock()
	return collator.CompareString(ka, kb)
}

// SortBy sorts items in place by the display name selected by nom.
// Ties keep their original order.
func SortBy[T any](items []T, nom func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return Compare(nom(items[i]), nom(items[j])) < 0
	})
}
