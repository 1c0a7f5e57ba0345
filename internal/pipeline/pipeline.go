// Package pipeline runs the end-to-end mining computation: vectorize cleaned
// issue descriptions, partition them into clusters, label each cluster,
// aggregate per-cluster demand metrics, and rank clusters by a combined
// priority score.
//
// A Pipeline is an explicit value holding the fitted vocabulary, trained
// centroids, and cluster list. It is built once per corpus and passed to
// Aggregate/Rank; there is no package-level state. After Build completes the
// vocabulary and centroids are read-only, so concurrent Aggregate-free reads
// are safe.
package pipeline

import (
	"fmt"

	"github.com/hurttlocker/featuremap/internal/cluster"
	"github.com/hurttlocker/featuremap/internal/vectorize"
)

// Unassigned marks an issue that has not been through an aggregation pass.
const Unassigned = -1

// Issue is one cleaned feature request from the tracker boundary.
// Cluster is set exactly once per aggregation pass; everything else is
// immutable after construction.
type Issue struct {
	ID          int64  `json:"id"`
	Votes       int    `json:"votes"`
	Description string `json:"description"`
	Cluster     int    `json:"cluster"`
}

// Cluster is one ranked group of similar requests, the output descriptor of
// the pipeline.
type Cluster struct {
	Index         int      `json:"index"`
	TopTerms      []string `json:"top_terms"`
	IssueCount    int      `json:"issue_count"`
	VoteSum       int      `json:"vote_sum"`
	IssueScore    float64  `json:"issue_score"`
	VoteScore     float64  `json:"vote_score"`
	CombinedScore float64  `json:"combined_score"`
}

// Options is the full configuration surface of the pipeline. Zero-valued
// knobs fall back to DefaultOptions, except the multipliers: a multiplier of
// zero is meaningful and silences that metric, so callers wanting defaults
// start from DefaultOptions.
type Options struct {
	Clusters        int
	NgramMin        int
	NgramMax        int
	ExtraStopWords  []string
	IssueMultiplier float64
	VoteMultiplier  float64
	MaxIterations   int
	NumInits        int
	Seed            int64
	TopTerms        int
}

// DefaultOptions returns the default pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Clusters:        50,
		NgramMin:        1,
		NgramMax:        2,
		ExtraStopWords:  []string{"feature", "issue"},
		IssueMultiplier: 1.0,
		VoteMultiplier:  1.0,
		MaxIterations:   100,
		NumInits:        1,
		Seed:            1,
		TopTerms:        10,
	}
}

// Pipeline holds the frozen artifacts of one training run.
type Pipeline struct {
	opts     Options
	vec      *vectorize.Vectorizer
	model    *cluster.Model
	clusters []Cluster
}

// Build fits the vocabulary on the issue corpus, trains the clustering model,
// and labels every cluster. Missing descriptions are treated as empty
// documents, never an error.
func Build(issues []Issue, opts Options) (*Pipeline, error) {
	opts = withDefaults(opts)

	corpus := make([]string, len(issues))
	for i, issue := range issues {
		corpus[i] = issue.Description
	}

	vec := vectorize.New(vectorize.Config{
		NgramMin:       opts.NgramMin,
		NgramMax:       opts.NgramMax,
		ExtraStopWords: opts.ExtraStopWords,
	})
	if err := vec.Fit(corpus); err != nil {
		return nil, fmt.Errorf("fitting vocabulary: %w", err)
	}

	matrix := vec.TransformAll(corpus)
	_, model, err := cluster.Train(matrix, cluster.TrainOptions{
		K:             opts.Clusters,
		MaxIterations: opts.MaxIterations,
		NumInits:      opts.NumInits,
		Seed:          opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("training clusters: %w", err)
	}

	terms := vec.Terms()
	clusters := make([]Cluster, model.K())
	for i := range clusters {
		clusters[i] = Cluster{
			Index:    i,
			TopTerms: cluster.TopTerms(model.Centroid(i), terms, opts.TopTerms),
		}
	}

	return &Pipeline{opts: opts, vec: vec, model: model, clusters: clusters}, nil
}

// K returns the number of clusters.
func (p *Pipeline) K() int { return len(p.clusters) }

// Clusters returns a copy of the cluster list in index order, with whatever
// counts and scores the latest Aggregate/Rank pass produced.
func (p *Pipeline) Clusters() []Cluster {
	return append([]Cluster(nil), p.clusters...)
}

// Predict maps a single description to its nearest cluster index without
// touching any pipeline state.
func (p *Pipeline) Predict(description string) int {
	return p.model.Predict(p.vec.Transform(description))
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Clusters <= 0 {
		opts.Clusters = def.Clusters
	}
	if opts.NgramMin <= 0 {
		opts.NgramMin = def.NgramMin
	}
	if opts.NgramMax <= 0 {
		opts.NgramMax = def.NgramMax
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.NumInits <= 0 {
		opts.NumInits = def.NumInits
	}
	if opts.TopTerms <= 0 {
		opts.TopTerms = def.TopTerms
	}
	return opts
}
