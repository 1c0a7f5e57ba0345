package cluster

import (
	"errors"
	"testing"
)

// twoGroups is a matrix with two well-separated groups.
func twoGroups() [][]float64 {
	return [][]float64{
		{1.0, 1.1, 0, 0},
		{1.1, 0.9, 0, 0},
		{0.9, 1.0, 0, 0},
		{0, 0, 1.0, 1.2},
		{0, 0, 1.1, 0.9},
	}
}

func TestTrainInvalidClusterCount(t *testing.T) {
	matrix := twoGroups()

	cases := []struct {
		name string
		k    int
	}{
		{"zero", 0},
		{"negative", -3},
		{"exceeds distinct", len(matrix) + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Train(matrix, TrainOptions{K: tc.k, Seed: 1})
			if !errors.Is(err, ErrInvalidClusterCount) {
				t.Fatalf("k=%d: expected ErrInvalidClusterCount, got %v", tc.k, err)
			}
		})
	}
}

func TestTrainDuplicatesDoNotCountAsDistinct(t *testing.T) {
	matrix := [][]float64{
		{1, 0},
		{1, 0},
		{0, 1},
		{0, 0}, // empty document
	}
	// Only two distinct non-zero rows, so K=3 is invalid.
	if _, _, err := Train(matrix, TrainOptions{K: 3, Seed: 1}); !errors.Is(err, ErrInvalidClusterCount) {
		t.Fatalf("expected ErrInvalidClusterCount, got %v", err)
	}
	if _, _, err := Train(matrix, TrainOptions{K: 2, Seed: 1}); err != nil {
		t.Fatalf("K=2 should be valid: %v", err)
	}
}

func TestTrainSeparatesGroups(t *testing.T) {
	matrix := twoGroups()
	labels, model, err := Train(matrix, TrainOptions{K: 2, Seed: 42, NumInits: 5})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if model.K() != 2 {
		t.Fatalf("expected 2 centroids, got %d", model.K())
	}

	for i, l := range labels {
		if l < 0 || l >= 2 {
			t.Fatalf("row %d: label %d out of range", i, l)
		}
	}
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Fatalf("first group split across clusters: %v", labels)
	}
	if labels[3] != labels[4] {
		t.Fatalf("second group split across clusters: %v", labels)
	}
	if labels[0] == labels[3] {
		t.Fatalf("groups merged into one cluster: %v", labels)
	}
}

func TestTrainDeterministicForSeed(t *testing.T) {
	matrix := twoGroups()

	first, _, err := Train(matrix, TrainOptions{K: 2, Seed: 7, NumInits: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	second, _, err := Train(matrix, TrainOptions{K: 2, Seed: 7, NumInits: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different labels: %v vs %v", first, second)
		}
	}
}

func TestPredictMatchesTraining(t *testing.T) {
	matrix := twoGroups()
	labels, model, err := Train(matrix, TrainOptions{K: 2, Seed: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	for i, row := range matrix {
		if got := model.Predict(row); got != labels[i] {
			t.Fatalf("row %d: Predict=%d, training label=%d", i, got, labels[i])
		}
	}
}

func TestPredictDoesNotMutateCentroids(t *testing.T) {
	matrix := twoGroups()
	_, model, err := Train(matrix, TrainOptions{K: 2, Seed: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	before := make([][]float64, model.K())
	for i := range before {
		before[i] = append([]float64(nil), model.Centroid(i)...)
	}

	model.Predict([]float64{5, 5, 5, 5})
	model.Predict([]float64{0, 0, 0, 0})

	for i := range before {
		after := model.Centroid(i)
		for j := range before[i] {
			if before[i][j] != after[j] {
				t.Fatalf("centroid %d mutated by Predict", i)
			}
		}
	}
}

func TestPredictTieBreaksToLowestIndex(t *testing.T) {
	model := &Model{centroids: [][]float64{
		{1, 0},
		{0, 1},
	}}
	// Equidistant from both centroids.
	if got := model.Predict([]float64{0.5, 0.5}); got != 0 {
		t.Fatalf("tie should go to cluster 0, got %d", got)
	}
}

func TestTopTerms(t *testing.T) {
	terms := []string{"api", "dark", "mode", "upgrade", "zebra"}

	got := TopTerms([]float64{0.5, 0, 0.9, 0.5, 0}, terms, 3)
	// mode first, then api/upgrade tied by weight, lexical order.
	want := []string{"mode", "api", "upgrade"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestTopTermsSkipsZeroWeights(t *testing.T) {
	terms := []string{"api", "dark"}
	got := TopTerms([]float64{0.3, 0}, terms, 10)
	if len(got) != 1 || got[0] != "api" {
		t.Fatalf("expected [api], got %v", got)
	}
}
