package pipeline

import "sort"

// Rank recomputes every cluster's scores from the current aggregated counts
// and returns the clusters ordered by descending combined score, ties broken
// by ascending index — a total order.
//
// Scores are min-max normalized across all clusters. When a metric is
// identical for every cluster (max == min), that metric's score is defined
// as zero for all of them rather than dividing by zero.
func (p *Pipeline) Rank() []Cluster {
	if len(p.clusters) == 0 {
		return nil
	}

	minIssues, maxIssues := p.clusters[0].IssueCount, p.clusters[0].IssueCount
	minVotes, maxVotes := p.clusters[0].VoteSum, p.clusters[0].VoteSum
	for _, c := range p.clusters[1:] {
		if c.IssueCount < minIssues {
			minIssues = c.IssueCount
		}
		if c.IssueCount > maxIssues {
			maxIssues = c.IssueCount
		}
		if c.VoteSum < minVotes {
			minVotes = c.VoteSum
		}
		if c.VoteSum > maxVotes {
			maxVotes = c.VoteSum
		}
	}

	for i := range p.clusters {
		c := &p.clusters[i]
		c.IssueScore = p.opts.IssueMultiplier * normalize(c.IssueCount, minIssues, maxIssues)
		c.VoteScore = p.opts.VoteMultiplier * normalize(c.VoteSum, minVotes, maxVotes)
		c.CombinedScore = (c.IssueScore + c.VoteScore) / 2
	}

	ranked := append([]Cluster(nil), p.clusters...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return ranked[i].Index < ranked[j].Index
	})
	return ranked
}

func normalize(value, min, max int) float64 {
	if max == min {
		return 0
	}
	return float64(value-min) / float64(max-min)
}
