// Package dedup splits candidate URLs into those the store has not seen and
// those it already holds.
package dedup

// Partition returns the candidates missing from existing, and those present.
// Input order is kept in both slices; a repeated candidate is only counted at
// its first occurrence.
func Partition(candidates, existing []string) (newURLs, duplicates []string) {
	have := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		have[u] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates))
	newURLs = make([]string, 0, len(candidates))
	duplicates = make([]string, 0)
	for _, u := range candidates {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		if _, ok := have[u]; ok {
			duplicates = append(duplicates, u)
			continue
		}
		newURLs = append(newURLs, u)
	}
	return newURLs, duplicates
}

// Unique drops repeats, keeping first occurrences in order.
func Unique(urls []string) []string {
	out, _ := Partition(urls, nil)
	return out
}
