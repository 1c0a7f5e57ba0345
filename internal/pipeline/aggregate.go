package pipeline

import "fmt"

// Aggregate assigns every issue to its nearest cluster and accumulates
// per-cluster issue counts and vote sums. All counters are reset first, so
// repeated passes over the same issues are idempotent.
//
// Each issue's Cluster field is set to its predicted index, and the full
// assignment is also returned as a separate id -> cluster map so callers
// never need to mutate a list they are iterating.
//
// Votes are validated up front: a negative vote count fails the pass before
// any counter or Cluster field changes.
func (p *Pipeline) Aggregate(issues []Issue) (map[int64]int, error) {
	for i := range issues {
		if issues[i].Votes < 0 {
			return nil, fmt.Errorf("issue %d: negative vote count %d", issues[i].ID, issues[i].Votes)
		}
	}

	for i := range p.clusters {
		p.clusters[i].IssueCount = 0
		p.clusters[i].VoteSum = 0
		p.clusters[i].IssueScore = 0
		p.clusters[i].VoteScore = 0
		p.clusters[i].CombinedScore = 0
	}

	assignments := make(map[int64]int, len(issues))
	for i := range issues {
		label := p.model.Predict(p.vec.Transform(issues[i].Description))
		issues[i].Cluster = label
		assignments[issues[i].ID] = label

		p.clusters[label].IssueCount++
		p.clusters[label].VoteSum += issues[i].Votes
	}

	return assignments, nil
}
