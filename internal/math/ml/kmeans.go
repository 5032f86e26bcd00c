package ml

import (
	"fmt"
	"strings"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// DefaultMaxIterations is the cap of update steps for a single run.
const DefaultMaxIterations = 100

// Init is the centroid initialisation scheme.
type Init int

const (
	// PlusPlus picks centroids with k-means++ seeding.
	PlusPlus Init = iota
	// RandomSample picks k distinct rows uniformly.
	RandomSample
)

func (i Init) String() string {
	switch i {
	case PlusPlus:
		return "kmeans++"
	case RandomSample:
		return "random"
	}
	return fmt.Sprintf("init(%d)", int(i))
}

// ParseInit parses the name of an initialisation scheme.
func ParseInit(s string) (Init, error) {
	switch strings.ToLower(s) {
	case "", "kmeans++", "k-means++", "plusplus":
		return PlusPlus, nil
	case "random":
		return RandomSample, nil
	}
	return 0, fmt.Errorf("unknown init scheme '%s': %w", s, model.ParameterErr)
}

// KMeans clusters tables with Lloyd's algorithm.
// It holds no state between runs and can be used concurrently.
type KMeans struct {
	init          Init
	maxIterations int
}

// NewKMeans creates a new k-means engine with k-means++ seeding and the default iteration cap.
func NewKMeans() *KMeans {
	return &KMeans{
		init:          PlusPlus,
		maxIterations: DefaultMaxIterations,
	}
}

// WithInit sets the initialisation scheme.
func (km *KMeans) WithInit(init Init) *KMeans {
	km.init = init
	return km
}

func (km *KMeans) Init() Init {
	return km.init
}

// WithMaxIterations sets the cap of update steps.
func (km *KMeans) WithMaxIterations(n int) *KMeans {
	km.maxIterations = n
	return km
}

// Run clusters the table into k groups.
// The same table, k and seed always produce the same result.
func (km *KMeans) Run(table model.Table, k int, seed int64) (model.Result, error) {
	n := table.Size()
	if n == 0 {
		return model.Result{}, fmt.Errorf("cannot cluster empty table: %w", model.EmptyInputErr)
	}
	if k < 1 || k > n {
		return model.Result{}, fmt.Errorf("k must be in [1,%d] but was %d: %w", n, k, model.ParameterErr)
	}

	vectors := table.Vectors()
	rng := rand.New(rand.NewSource(uint64(seed)))

	var centroids [][]float64
	switch km.init {
	case RandomSample:
		centroids = sample(vectors, k, rng)
	default:
		centroids = plusPlus(vectors, k, rng)
	}

	clusters := make([]int, n)
	distances := make([][]float64, n)
	for i := range clusters {
		clusters[i] = -1
		distances[i] = make([]float64, k)
	}

	inertia := make([]float64, 0)
	iterations := 0
	converged := false
	for {
		changed, sse := assign(vectors, centroids, clusters, distances)
		inertia = append(inertia, sse)
		if !changed {
			converged = true
			break
		}
		if iterations >= km.maxIterations {
			break
		}
		update(vectors, centroids, clusters)
		iterations++
	}

	if !converged {
		log.Warn().
			Int("k", k).
			Int64("seed", seed).
			Int("iterations", iterations).
			Msg("k-means did not converge")
	}

	result := model.Result{
		K:           k,
		Centroids:   make([]model.Centroid, k),
		Assignments: make([]model.Assignment, n),
		Iterations:  iterations,
		Converged:   converged,
		Inertia:     inertia,
	}
	for j, c := range centroids {
		result.Centroids[j] = model.Centroid{
			ID:       j + 1,
			Features: c,
		}
	}
	// the reported membership is the one the last centroids were checked against
	for i := range vectors {
		result.Assignments[i] = model.Assignment{
			Cluster:   clusters[i] + 1,
			Distances: distances[i],
		}
	}
	return result, nil
}

// assign moves every row to its closest centroid, the lowest index winning ties.
// The euclidean distance of every row to every centroid is written into distances.
// It returns whether any row changed cluster and the sum of squared distances.
func assign(vectors, centroids [][]float64, clusters []int, distances [][]float64) (bool, float64) {
	changed := false
	sse := 0.0
	for i, v := range vectors {
		for j, c := range centroids {
			distances[i][j] = floats.Distance(v, c, 2)
		}
		// MinIdx keeps the first minimum
		best := floats.MinIdx(distances[i])
		if clusters[i] != best {
			clusters[i] = best
			changed = true
		}
		d := distances[i][best]
		sse += d * d
	}
	return changed, sse
}

// update moves every centroid to the mean of its rows.
// Centroids without rows stay where they are.
func update(vectors, centroids [][]float64, clusters []int) {
	counts := make([]int, len(centroids))
	for _, c := range clusters {
		counts[c]++
	}
	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		floats.Scale(0, centroids[j])
	}
	// rows are scaled before summing so the mean of large values does not overflow
	for i, v := range vectors {
		c := clusters[i]
		floats.AddScaled(centroids[c], 1/float64(counts[c]), v)
	}
}

func sample(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for j := 0; j < k; j++ {
		centroids[j] = copyVec(vectors[perm[j]])
	}
	return centroids
}

// plusPlus picks each next centroid with probability proportional to its squared distance
// from the closest centroid picked so far.
func plusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	picked := make([]bool, n)
	nearest := make([]float64, n)
	weights := make([]float64, n)

	first := rng.Intn(n)
	picked[first] = true
	centroids := [][]float64{copyVec(vectors[first])}
	for i, v := range vectors {
		nearest[i] = floats.Distance(v, vectors[first], 2)
	}

	for len(centroids) < k {
		// weights are relative to the farthest row, squaring large distances would overflow
		farthest := 0.0
		for i, d := range nearest {
			if !picked[i] && d > farthest {
				farthest = d
			}
		}

		next := -1
		if farthest > 0 {
			total := 0.0
			for i, d := range nearest {
				weights[i] = 0
				if !picked[i] {
					r := d / farthest
					weights[i] = r * r
					total += weights[i]
				}
			}
			r := rng.Float64() * total
			acc := 0.0
			for i, w := range weights {
				if w == 0 {
					continue
				}
				next = i
				acc += w
				if r < acc {
					break
				}
			}
		} else {
			// all remaining rows coincide with a centroid
			free := make([]int, 0, n)
			for i := range picked {
				if !picked[i] {
					free = append(free, i)
				}
			}
			next = free[rng.Intn(len(free))]
		}

		picked[next] = true
		centroids = append(centroids, copyVec(vectors[next]))
		for i, v := range vectors {
			if d := floats.Distance(v, vectors[next], 2); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centroids
}

func copyVec(v []float64) []float64 {
	w := make([]float64, len(v))
	copy(w, v)
	return w
}
