// Package report renders ranked cluster lists for the CLI and for
// structured downstream consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hurttlocker/featuremap/internal/pipeline"
)

// FormatRanking renders clusters as an aligned text table, one row per
// cluster in ranking order. Limit <= 0 renders everything.
func FormatRanking(clusters []pipeline.Cluster, limit int) string {
	if limit <= 0 || limit > len(clusters) {
		limit = len(clusters)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s %-8s %-7s %-6s %-7s %s\n",
		"RANK", "CLUSTER", "ISSUES", "VOTES", "SCORE", "TOP TERMS")
	for i, c := range clusters[:limit] {
		terms := strings.Join(c.TopTerms, ", ")
		if len(terms) > 60 {
			terms = terms[:57] + "..."
		}
		fmt.Fprintf(&sb, "%-5d %-8d %-7d %-6d %-7.3f %s\n",
			i+1, c.Index, c.IssueCount, c.VoteSum, c.CombinedScore, terms)
	}
	return sb.String()
}

// WriteJSON writes the ranked cluster list as indented JSON.
func WriteJSON(w io.Writer, clusters []pipeline.Cluster) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(clusters); err != nil {
		return fmt.Errorf("encoding ranking: %w", err)
	}
	return nil
}
