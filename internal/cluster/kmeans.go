// Package cluster partitions document-term matrix rows into K groups using
// k-means with distance-weighted seeding, and labels the resulting centroids
// with their top vocabulary terms.
//
// Training is fully deterministic for a given seed: seeding, assignment
// tie-breaks, and restart selection all have defined orderings.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// ErrInvalidClusterCount is returned when K is below 1 or exceeds the number
// of distinct documents with non-zero vectors.
var ErrInvalidClusterCount = errors.New("invalid cluster count")

// DefaultMaxIterations caps the relocation loop when TrainOptions leaves it unset.
const DefaultMaxIterations = 100

// TrainOptions controls a training run.
type TrainOptions struct {
	K             int
	MaxIterations int   // <=0 means DefaultMaxIterations
	NumInits      int   // <=0 means 1; best restart by inertia is kept
	Seed          int64 // drives all randomness for the run
}

// Model holds the frozen centroids of a trained run. Predict never mutates it.
type Model struct {
	centroids [][]float64
}

// K returns the number of centroids.
func (m *Model) K() int { return len(m.centroids) }

// Centroid returns the centroid vector for a cluster index.
// The returned slice is shared and must be treated as read-only.
func (m *Model) Centroid(i int) []float64 { return m.centroids[i] }

// Train partitions matrix rows into opts.K clusters.
//
//  1. Seed K centroids: successive centroids are chosen with probability
//     proportional to squared distance from the nearest already-chosen one.
//  2. Assign each row to the nearest centroid (Euclidean), ties to the
//     lowest centroid index.
//  3. Recompute each centroid as the mean of its rows; a centroid with no
//     rows keeps its previous position.
//  4. Stop when no assignment changes, or after MaxIterations.
//
// With NumInits > 1 the whole process repeats and the restart with the
// lowest within-cluster squared distance wins; ties keep the earlier one.
func Train(matrix [][]float64, opts TrainOptions) ([]int, *Model, error) {
	distinct := countDistinctNonZero(matrix)
	if opts.K < 1 || opts.K > distinct {
		return nil, nil, fmt.Errorf("%w: k=%d, distinct non-zero documents=%d", ErrInvalidClusterCount, opts.K, distinct)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.NumInits <= 0 {
		opts.NumInits = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	var (
		bestLabels    []int
		bestCentroids [][]float64
		bestInertia   = math.Inf(1)
	)
	for init := 0; init < opts.NumInits; init++ {
		labels, centroids := runKMeans(matrix, opts.K, opts.MaxIterations, rng)
		inertia := totalInertia(matrix, labels, centroids)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
			bestCentroids = centroids
		}
	}

	return bestLabels, &Model{centroids: bestCentroids}, nil
}

// Predict returns the index of the nearest centroid, ties to the lowest index.
func (m *Model) Predict(vec []float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range m.centroids {
		if d := sqDist(vec, c); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func runKMeans(matrix [][]float64, k, maxIterations int, rng *rand.Rand) ([]int, [][]float64) {
	centroids := seedCentroids(matrix, k, rng)
	labels := make([]int, len(matrix))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, row := range matrix {
			best := 0
			bestDist := math.Inf(1)
			for c := range centroids {
				if d := sqDist(row, centroids[c]); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims(matrix))
		}
		for i, row := range matrix {
			c := labels[i]
			counts[c]++
			for j, w := range row {
				sums[c][j] += w
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue // empty cluster keeps its centroid
			}
			for j := range sums[c] {
				sums[c][j] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}

	return labels, centroids
}

// seedCentroids implements distance-weighted (k-means++) initialization.
func seedCentroids(matrix [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneRow(matrix[rng.Intn(len(matrix))]))

	for len(centroids) < k {
		weights := make([]float64, len(matrix))
		total := 0.0
		for i, row := range matrix {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(row, c); d < nearest {
					nearest = d
				}
			}
			weights[i] = nearest
			total += nearest
		}

		if total == 0 {
			// All rows coincide with chosen centroids; K is validated
			// against distinct rows, so this only happens on float
			// underflow. Fall back to a uniform pick.
			centroids = append(centroids, cloneRow(matrix[rng.Intn(len(matrix))]))
			continue
		}

		r := rng.Float64() * total
		pick := len(matrix) - 1
		for i, w := range weights {
			r -= w
			if r <= 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, cloneRow(matrix[pick]))
	}

	return centroids
}

func totalInertia(matrix [][]float64, labels []int, centroids [][]float64) float64 {
	total := 0.0
	for i, row := range matrix {
		total += sqDist(row, centroids[labels[i]])
	}
	return total
}

// countDistinctNonZero counts distinct rows that have at least one non-zero
// column. K must not exceed this: duplicate and empty documents cannot
// anchor their own clusters.
func countDistinctNonZero(matrix [][]float64) int {
	seen := make(map[string]struct{})
	for _, row := range matrix {
		var sb strings.Builder
		nonZero := false
		for j, w := range row {
			if w == 0 {
				continue
			}
			nonZero = true
			sb.WriteString(strconv.Itoa(j))
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatFloat(w, 'g', -1, 64))
			sb.WriteByte(';')
		}
		if nonZero {
			seen[sb.String()] = struct{}{}
		}
	}
	return len(seen)
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func dims(matrix [][]float64) int {
	if len(matrix) == 0 {
		return 0
	}
	return len(matrix[0])
}

func cloneRow(row []float64) []float64 {
	return append([]float64(nil), row...)
}
