package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const defaultMaxIterations = 100

// KMeans is the clustering strategy: Lloyd's algorithm with k-means++
// seeding. A fixed Seed makes assignments deterministic for identical input
// and parameters.
type KMeans struct {
	K       int
	MaxIter int
	Seed    uint64
}

// Fit assigns each row of X to one of K clusters and returns the labels and
// the within-cluster sum of squares (inertia).
func (km KMeans) Fit(X *mat.Dense) ([]int, float64, error) {
	rows, cols := X.Dims()
	if km.K < 2 {
		return nil, 0, eris.Errorf("kmeans: k must be at least 2, got %d", km.K)
	}
	if rows < km.K {
		return nil, 0, eris.Errorf("kmeans: %d rows cannot form %d clusters", rows, km.K)
	}

	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))
	centers := km.seedCenters(X, rng)

	labels := make([]int, rows)
	point := make([]float64, cols)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i := 0; i < rows; i++ {
			mat.Row(point, i, X)
			best := nearestCenter(point, centers)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		centers = recomputeCenters(X, labels, km.K, rng)
	}

	var inertia float64
	for i := 0; i < rows; i++ {
		mat.Row(point, i, X)
		d := floats.Distance(point, centers[labels[i]], 2)
		inertia += d * d
	}
	return labels, inertia, nil
}

// seedCenters runs k-means++ initialization: the first center is uniform,
// each subsequent center is drawn with probability proportional to its
// squared distance from the nearest chosen center.
func (km KMeans) seedCenters(X *mat.Dense, rng *rand.Rand) [][]float64 {
	rows, cols := X.Dims()

	centers := make([][]float64, 0, km.K)
	first := make([]float64, cols)
	mat.Row(first, rng.IntN(rows), X)
	centers = append(centers, first)

	d2 := make([]float64, rows)
	point := make([]float64, cols)
	for len(centers) < km.K {
		var total float64
		for i := 0; i < rows; i++ {
			mat.Row(point, i, X)
			d := floats.Distance(point, centers[nearestCenter(point, centers)], 2)
			d2[i] = d * d
			total += d2[i]
		}

		var idx int
		if total == 0 {
			// All points coincide with chosen centers; fall back to uniform.
			idx = rng.IntN(rows)
		} else {
			target := rng.Float64() * total
			var cum float64
			for i := 0; i < rows; i++ {
				cum += d2[i]
				if cum >= target {
					idx = i
					break
				}
			}
		}

		c := make([]float64, cols)
		mat.Row(c, idx, X)
		centers = append(centers, c)
	}

	return centers
}

func nearestCenter(point []float64, centers [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := floats.Distance(point, center, 2); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// recomputeCenters averages each cluster's members. An emptied cluster is
// reseeded from a random row so k survives to the next iteration.
func recomputeCenters(X *mat.Dense, labels []int, k int, rng *rand.Rand) [][]float64 {
	rows, cols := X.Dims()

	centers := make([][]float64, k)
	counts := make([]int, k)
	for c := range centers {
		centers[c] = make([]float64, cols)
	}

	point := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(point, i, X)
		floats.Add(centers[labels[i]], point)
		counts[labels[i]]++
	}

	for c := range centers {
		if counts[c] == 0 {
			mat.Row(centers[c], rng.IntN(rows), X)
			continue
		}
		floats.Scale(1/float64(counts[c]), centers[c])
	}
	return centers
}
