package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/hurttlocker/featuremap/internal/cluster"
	"github.com/hurttlocker/featuremap/internal/vectorize"
)

func apiCorpusIssues() []Issue {
	return []Issue{
		{ID: 1, Votes: 5, Description: "upgrade the api please", Cluster: Unassigned},
		{ID: 2, Votes: 3, Description: "please upgrade api", Cluster: Unassigned},
		{ID: 3, Votes: 0, Description: "add a dark mode", Cluster: Unassigned},
	}
}

func buildTestPipeline(t *testing.T, issues []Issue, opts Options) *Pipeline {
	t.Helper()
	p, err := Build(issues, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestBuildEmptyCorpus(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	if !errors.Is(err, vectorize.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestBuildInvalidClusterCount(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 10 // only 2 distinct non-empty documents below
	_, err := Build(apiCorpusIssues(), opts)
	if !errors.Is(err, cluster.ErrInvalidClusterCount) {
		t.Fatalf("expected ErrInvalidClusterCount, got %v", err)
	}
}

func TestEndToEndRanking(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1
	opts.Seed = 1

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)

	assignments, err := p.Aggregate(issues)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	// The two API requests are word-identical after stopword removal and
	// must share a cluster; dark mode sits alone in the other one.
	if assignments[1] != assignments[2] {
		t.Fatalf("api issues split across clusters: %v", assignments)
	}
	if assignments[1] == assignments[3] {
		t.Fatalf("dark mode merged with api cluster: %v", assignments)
	}
	for id, c := range assignments {
		if c < 0 || c >= 2 {
			t.Fatalf("issue %d: cluster %d out of [0,2)", id, c)
		}
	}
	for _, issue := range issues {
		if issue.Cluster != assignments[issue.ID] {
			t.Fatalf("issue %d: Cluster field %d disagrees with assignment %d",
				issue.ID, issue.Cluster, assignments[issue.ID])
		}
	}

	ranked := p.Rank()
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked clusters, got %d", len(ranked))
	}

	top, bottom := ranked[0], ranked[1]
	if top.IssueCount != 2 || top.VoteSum != 8 {
		t.Fatalf("top cluster metrics wrong: count=%d votes=%d", top.IssueCount, top.VoteSum)
	}
	if bottom.IssueCount != 1 || bottom.VoteSum != 0 {
		t.Fatalf("bottom cluster metrics wrong: count=%d votes=%d", bottom.IssueCount, bottom.VoteSum)
	}
	if top.CombinedScore != 1.0 {
		t.Fatalf("top combined score = %v, want 1.0", top.CombinedScore)
	}
	if bottom.CombinedScore != 0.0 {
		t.Fatalf("bottom combined score = %v, want 0.0", bottom.CombinedScore)
	}

	// The API cluster is labeled with its dominant terms.
	foundAPI := false
	for _, term := range top.TopTerms {
		if term == "api" || term == "upgrade" {
			foundAPI = true
		}
	}
	if !foundAPI {
		t.Fatalf("top cluster labels missing api/upgrade: %v", top.TopTerms)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)

	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("first Aggregate: %v", err)
	}
	first := p.Clusters()

	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}
	second := p.Clusters()

	for i := range first {
		if first[i].IssueCount != second[i].IssueCount || first[i].VoteSum != second[i].VoteSum {
			t.Fatalf("cluster %d accumulated across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAggregateNegativeVotes(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)

	issues[0].Votes = -1
	if _, err := p.Aggregate(issues); err == nil {
		t.Fatal("expected error for negative vote count")
	}
}

func TestRankEqualMetricsScoreZero(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1

	// Two singleton clusters with equal vote sums: every min-max range
	// collapses, so all scores are defined as zero.
	issues := []Issue{
		{ID: 1, Votes: 4, Description: "upgrade the api"},
		{ID: 2, Votes: 4, Description: "add a dark mode"},
	}
	p := buildTestPipeline(t, issues, opts)
	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	for _, c := range p.Rank() {
		if c.IssueScore != 0 || c.VoteScore != 0 || c.CombinedScore != 0 {
			t.Fatalf("degenerate normalization should score zero, got %+v", c)
		}
	}
}

func TestRankTotalOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 3
	opts.NgramMin, opts.NgramMax = 1, 1
	opts.NumInits = 5

	issues := []Issue{
		{ID: 1, Votes: 2, Description: "upgrade the api"},
		{ID: 2, Votes: 2, Description: "export to csv"},
		{ID: 3, Votes: 2, Description: "add dark mode"},
	}
	p := buildTestPipeline(t, issues, opts)
	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	ranked := p.Rank()
	for i := 1; i < len(ranked); i++ {
		prev, cur := ranked[i-1], ranked[i]
		if prev.CombinedScore < cur.CombinedScore {
			t.Fatalf("ranking not descending at %d", i)
		}
		if prev.CombinedScore == cur.CombinedScore && prev.Index >= cur.Index {
			t.Fatalf("tie at %d not broken by ascending index", i)
		}
	}
}

func TestMultipliersWeightScores(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1
	opts.VoteMultiplier = 0.5

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)
	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	top := p.Rank()[0]
	// issue_score = 1.0, vote_score = 0.5*1.0, combined = 0.75.
	if math.Abs(top.CombinedScore-0.75) > 1e-12 {
		t.Fatalf("combined score with vote multiplier 0.5 = %v, want 0.75", top.CombinedScore)
	}
}

func TestZeroVoteMultiplierSilencesVotes(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1
	opts.VoteMultiplier = 0

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)
	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	top := p.Rank()[0]
	if top.VoteScore != 0 {
		t.Fatalf("vote score with zero multiplier = %v, want 0", top.VoteScore)
	}
	// issue_score = 1.0, vote_score = 0, combined = 0.5.
	if math.Abs(top.CombinedScore-0.5) > 1e-12 {
		t.Fatalf("combined score with zero vote multiplier = %v, want 0.5", top.CombinedScore)
	}
}

func TestAggregateNegativeVotesLeavesStateUntouched(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1

	issues := apiCorpusIssues()
	p := buildTestPipeline(t, issues, opts)
	if _, err := p.Aggregate(issues); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	before := p.Clusters()
	assignedBefore := issues[0].Cluster

	// The bad row sits last, after rows the pass would otherwise have
	// already counted and stamped.
	issues[2].Votes = -1
	issues[2].Cluster = Unassigned
	if _, err := p.Aggregate(issues); err == nil {
		t.Fatal("expected error for negative vote count")
	}

	after := p.Clusters()
	for i := range before {
		if before[i].IssueCount != after[i].IssueCount || before[i].VoteSum != after[i].VoteSum {
			t.Fatalf("cluster %d mutated by failed pass: %+v vs %+v", i, before[i], after[i])
		}
	}
	if issues[0].Cluster != assignedBefore {
		t.Fatalf("issue 1 restamped by failed pass: %d vs %d", issues[0].Cluster, assignedBefore)
	}
	if issues[2].Cluster != Unassigned {
		t.Fatalf("rejected pass stamped issue 3: %d", issues[2].Cluster)
	}
}

func TestPredictInRange(t *testing.T) {
	opts := DefaultOptions()
	opts.Clusters = 2
	opts.NgramMin, opts.NgramMax = 1, 1

	p := buildTestPipeline(t, apiCorpusIssues(), opts)
	for _, text := range []string{"upgrade api", "dark mode", "", "totally unseen words"} {
		if c := p.Predict(text); c < 0 || c >= p.K() {
			t.Fatalf("Predict(%q) = %d, out of [0,%d)", text, c, p.K())
		}
	}
}
