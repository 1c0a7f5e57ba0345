package cluster

import "sort"

// DefaultTopTerms is the number of descriptor terms per cluster.
const DefaultTopTerms = 10

// TopTerms returns up to n vocabulary terms with the largest weight in the
// centroid, descending; equal weights break ties by lexical term order.
// Zero-weight terms never appear, so sparse centroids may yield fewer than n.
func TopTerms(centroid []float64, terms []string, n int) []string {
	if n <= 0 {
		n = DefaultTopTerms
	}

	type weighted struct {
		term   string
		weight float64
	}
	candidates := make([]weighted, 0, len(centroid))
	for i, w := range centroid {
		if w <= 0 || i >= len(terms) {
			continue
		}
		candidates = append(candidates, weighted{term: terms[i], weight: w})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].term < candidates[j].term
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.term
	}
	return out
}
