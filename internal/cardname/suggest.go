package cardname

import (
	"github.com/antzucaro/matchr"
)

type Suggestion struct {
	Name        string
	Closest     string
	Correlation float64
}

// Suggest pairs every unmatched name with the most similar catalog name by
// Jaro-Winkler similarity. Names with no similar catalog entry get an empty
// Closest.
func Suggest(unmatched, catalog []string) []Suggestion {
	result := make([]Suggestion, 0, len(unmatched))
	for _, name := range unmatched {
		var mostSimilarity float64
		var mostSimilar string

		for _, candidate := range catalog {
			similarity := matchr.JaroWinkler(name, candidate, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilar = candidate
			}
		}

		result = append(result, Suggestion{
			Name:        name,
			Closest:     mostSimilar,
			Correlation: mostSimilarity,
		})
	}
	return result
}
