package search

import (
	"iter"
	"strings"
	"unicode/utf8"

	"wisatamap/internal/poi"
)

// MinTermLength is the shortest term that yields suggestions
const MinTermLength = 2

// Index answers name lookups over the feature store
type Index struct {
	store *poi.Store
}

// NewIndex creates an index reading from store
func NewIndex(store *poi.Store) *Index {
	return &Index{store: store}
}

// Suggest returns the names containing term (case-insensitive), in store
// order, at most limit of them. The sequence reads the store each time it is
// ranged over. Terms shorter than MinTermLength and non-positive limits
// yield nothing.
func (ix *Index) Suggest(term string, limit int) iter.Seq[string] {
	needle := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(string) bool) {
		if utf8.RuneCountInString(needle) < MinTermLength || limit <= 0 {
			return
		}
		n := 0
		for _, f := range ix.store.GetAll() {
			if !strings.Contains(strings.ToLower(f.Name), needle) {
				continue
			}
			if !yield(f.Name) {
				return
			}
			n++
			if n >= limit {
				return
			}
		}
	}
}
