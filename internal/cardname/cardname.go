// Package cardname decides how card names scraped from deck pages are
// matched against catalog names. Matching is exact unless a Folded resolver
// is configured.
package cardname

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Resolver maps a scraped card name onto the name stored in deck lists.
type Resolver interface {
	Resolve(name string) string
}

// Exact keeps names as scraped.
type Exact struct{}

func (Exact) Resolve(name string) string {
	return name
}

// Folded rewrites a scraped name to the catalog spelling when both fold to
// the same key. Names without a unique catalog match are returned unchanged.
type Folded struct {
	byKey map[string]string
}

func NewFolded(catalog []string) Folded {
	byKey := make(map[string]string, len(catalog))
	ambiguous := make(map[string]struct{})
	for _, name := range catalog {
		key := Fold(name)
		if key == "" {
			continue
		}
		existing, ok := byKey[key]
		if ok && existing != name {
			ambiguous[key] = struct{}{}
			continue
		}
		byKey[key] = name
	}
	for key := range ambiguous {
		delete(byKey, key)
	}
	return Folded{byKey: byKey}
}

func (f Folded) Resolve(name string) string {
	match, ok := f.byKey[Fold(name)]
	if !ok {
		return name
	}
	return match
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold reduces a name to lowercase letters and digits, dropping accents,
// apostrophes, punctuation and whitespace.
func Fold(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
