package ml

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

func newTable(features ...[]float64) model.Table {
	table := model.Table{
		FeatureCount: len(features[0]),
		Rows:         make([]model.Row, len(features)),
	}
	for i, f := range features {
		table.Rows[i] = model.Row{
			Label:    fmt.Sprintf("r%d", i),
			Features: f,
		}
	}
	return table
}

func randomTable(seed uint64, n, dim int) model.Table {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, n)
	for i := range features {
		features[i] = make([]float64, dim)
		for j := range features[i] {
			features[i][j] = rng.NormFloat64() * 10
		}
	}
	return newTable(features...)
}

// blobs creates 5 points around each of the given centers, symmetric so that their mean is the center.
func blobs(centers ...[]float64) model.Table {
	features := make([][]float64, 0)
	for _, c := range centers {
		features = append(features,
			[]float64{c[0], c[1]},
			[]float64{c[0] + 1, c[1]},
			[]float64{c[0] - 1, c[1]},
			[]float64{c[0], c[1] + 1},
			[]float64{c[0], c[1] - 1},
		)
	}
	return newTable(features...)
}

func TestKMeans_TwoGroups(t *testing.T) {
	table := newTable([]float64{0}, []float64{0}, []float64{10}, []float64{10})

	for seed := int64(0); seed < 20; seed++ {
		result, err := NewKMeans().Run(table, 2, seed)
		require.NoError(t, err)

		a := result.Assignments
		assert.Equal(t, a[0].Cluster, a[1].Cluster)
		assert.Equal(t, a[2].Cluster, a[3].Cluster)
		assert.NotEqual(t, a[0].Cluster, a[2].Cluster)
		for _, assignment := range a {
			assert.InDelta(t, 0, assignment.Distance(), 1e-12)
		}
		assert.True(t, result.Converged)
	}
}

func TestKMeans_EveryRowItsOwnCluster(t *testing.T) {
	table := newTable([]float64{0, 1}, []float64{1, 5}, []float64{5, 5}, []float64{9, -3}, []float64{20, 0})

	for _, init := range []Init{PlusPlus, RandomSample} {
		t.Run(init.String(), func(t *testing.T) {
			result, err := NewKMeans().WithInit(init).Run(table, table.Size(), 7)
			require.NoError(t, err)

			seen := make(map[int]bool)
			for _, a := range result.Assignments {
				assert.Equal(t, 0.0, a.Distance())
				assert.False(t, seen[a.Cluster], "cluster %d assigned twice", a.Cluster)
				seen[a.Cluster] = true
			}
			assert.Equal(t, table.Size(), len(seen))
		})
	}
}

func TestKMeans_Parameters(t *testing.T) {

	type test struct {
		table model.Table
		k     int
		err   error
	}

	table := newTable([]float64{0}, []float64{1}, []float64{2})

	tests := map[string]test{
		"k-larger-than-rows": {table: table, k: 4, err: model.ParameterErr},
		"k-zero":             {table: table, k: 0, err: model.ParameterErr},
		"k-negative":         {table: table, k: -1, err: model.ParameterErr},
		"empty-table":        {table: model.Table{FeatureCount: 1}, k: 1, err: model.EmptyInputErr},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewKMeans().Run(tt.table, tt.k, 1)
			assert.True(t, errors.Is(err, tt.err), "unexpected error: %v", err)
		})
	}
}

func TestKMeans_Shape(t *testing.T) {
	table := randomTable(11, 200, 3)

	for k := 1; k <= 8; k++ {
		for _, init := range []Init{PlusPlus, RandomSample} {
			result, err := NewKMeans().WithInit(init).Run(table, k, int64(k))
			require.NoError(t, err)

			assert.Equal(t, k, result.K)
			require.Equal(t, k, len(result.Centroids))
			for j, c := range result.Centroids {
				assert.Equal(t, j+1, c.ID)
				assert.Equal(t, table.FeatureCount, len(c.Features))
			}
			require.Equal(t, table.Size(), len(result.Assignments))
			for _, a := range result.Assignments {
				require.Equal(t, k, len(a.Distances))
				assert.GreaterOrEqual(t, a.Cluster, 1)
				assert.LessOrEqual(t, a.Cluster, k)
				assert.Equal(t, floats.MinIdx(a.Distances)+1, a.Cluster)
			}
		}
	}
}

func TestKMeans_Deterministic(t *testing.T) {
	table := randomTable(3, 150, 4)

	for _, init := range []Init{PlusPlus, RandomSample} {
		t.Run(init.String(), func(t *testing.T) {
			first, err := NewKMeans().WithInit(init).Run(table, 5, 42)
			require.NoError(t, err)
			second, err := NewKMeans().WithInit(init).Run(table, 5, 42)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestKMeans_DoesNotModifyTable(t *testing.T) {
	table := randomTable(5, 50, 2)
	before := make([][]float64, table.Size())
	for i, row := range table.Rows {
		before[i] = append([]float64{}, row.Features...)
	}

	_, err := NewKMeans().Run(table, 4, 1)
	require.NoError(t, err)

	for i, row := range table.Rows {
		assert.Equal(t, before[i], row.Features)
	}
}

func TestKMeans_InertiaDoesNotIncrease(t *testing.T) {
	table := randomTable(17, 300, 2)

	for seed := int64(0); seed < 5; seed++ {
		result, err := NewKMeans().WithInit(RandomSample).Run(table, 6, seed)
		require.NoError(t, err)
		require.NotEmpty(t, result.Inertia)
		for i := 1; i < len(result.Inertia); i++ {
			assert.LessOrEqual(t, result.Inertia[i], result.Inertia[i-1]+1e-9)
		}
	}
}

func TestKMeans_AverageDistanceImproves(t *testing.T) {
	table := blobs([]float64{0, 0}, []float64{100, 0}, []float64{0, 100})

	for seed := int64(0); seed < 10; seed++ {
		// no update step, so this is the first assignment
		initial, err := NewKMeans().WithMaxIterations(0).Run(table, 3, seed)
		require.NoError(t, err)
		final, err := NewKMeans().Run(table, 3, seed)
		require.NoError(t, err)

		before, err := Aggregate(initial.Assignments)
		require.NoError(t, err)
		after, err := Aggregate(final.Assignments)
		require.NoError(t, err)

		assert.LessOrEqual(t, after.AverageDistance, before.AverageDistance+1e-12)
		assert.InDelta(t, 0.8, after.AverageDistance, 1e-9)
	}
}

func TestKMeans_MaxIterations(t *testing.T) {
	table := randomTable(23, 500, 2)

	result, err := NewKMeans().WithInit(RandomSample).WithMaxIterations(1).Run(table, 10, 3)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Iterations, 1)
	assert.LessOrEqual(t, len(result.Inertia), 2)
	for _, a := range result.Assignments {
		assert.Equal(t, floats.MinIdx(a.Distances)+1, a.Cluster)
	}
}

func TestUpdate_EmptyClusterKeepsPosition(t *testing.T) {
	vectors := [][]float64{{0, 0}, {2, 2}}
	centroids := [][]float64{{1, 1}, {5, 5}}
	clusters := []int{0, 0}

	update(vectors, centroids, clusters)

	assert.Equal(t, []float64{1, 1}, centroids[0])
	assert.Equal(t, []float64{5, 5}, centroids[1])
}

func TestAssign_TiesGoToLowestID(t *testing.T) {
	vectors := [][]float64{{5}}
	centroids := [][]float64{{10}, {0}, {10}}
	clusters := []int{-1}
	distances := [][]float64{make([]float64, 3)}

	changed, sse := assign(vectors, centroids, clusters, distances)
	assert.True(t, changed)
	assert.Equal(t, 25.0, sse)
	assert.Equal(t, 0, clusters[0])
	assert.Equal(t, []float64{5, 5, 5}, distances[0])

	changed, _ = assign(vectors, centroids, clusters, distances)
	assert.False(t, changed)
}

func TestAssign_MirroredRowsStayInFirstCluster(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	// rows on the plane x=0 are equally far from both centroids
	centroids := [][]float64{{-0.3, 1.7, 2.9}, {0.3, 1.7, 2.9}}
	n := 10000
	vectors := make([][]float64, n)
	clusters := make([]int, n)
	distances := make([][]float64, n)
	for i := range vectors {
		vectors[i] = []float64{0, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
		clusters[i] = -1
		distances[i] = make([]float64, 2)
	}

	assign(vectors, centroids, clusters, distances)
	for i := range vectors {
		assert.Equal(t, 0, clusters[i])
		assert.Equal(t, floats.MinIdx(distances[i]), clusters[i])
	}
}

// members returns the mean of the rows reported in every cluster.
func members(table model.Table, result model.Result) map[int][]float64 {
	counts := make(map[int]int)
	for _, a := range result.Assignments {
		counts[a.Cluster]++
	}
	means := make(map[int][]float64)
	for i, a := range result.Assignments {
		if _, ok := means[a.Cluster]; !ok {
			means[a.Cluster] = make([]float64, table.FeatureCount)
		}
		floats.AddScaled(means[a.Cluster], 1/float64(counts[a.Cluster]), table.Rows[i].Features)
	}
	return means
}

func TestKMeans_ReportedMembershipMatchesCentroids(t *testing.T) {

	type test struct {
		table model.Table
		k     int
		init  Init
	}

	tests := map[string]test{
		"huge-values-random": {
			table: newTable([]float64{0}, []float64{1e160}, []float64{1e200}, []float64{1.1e200}),
			k:     2,
			init:  RandomSample,
		},
		"huge-values-plus-plus": {
			table: newTable([]float64{0}, []float64{1e160}, []float64{1e200}, []float64{1.1e200}),
			k:     2,
			init:  PlusPlus,
		},
		"huge-values-2d": {
			table: newTable(
				[]float64{-1e200, 3e199}, []float64{-1.2e200, 2e199},
				[]float64{1e200, -1e199}, []float64{1.3e200, -2e199},
			),
			k:    2,
			init: RandomSample,
		},
		"random": {
			table: randomTable(77, 300, 3),
			k:     5,
			init:  PlusPlus,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for seed := int64(0); seed < 4; seed++ {
				result, err := NewKMeans().WithInit(tt.init).Run(tt.table, tt.k, seed)
				require.NoError(t, err)

				for _, a := range result.Assignments {
					assert.Equal(t, floats.MinIdx(a.Distances)+1, a.Cluster)
					for _, d := range a.Distances {
						assert.False(t, math.IsInf(d, 0) || math.IsNaN(d))
					}
				}
				if !result.Converged {
					continue
				}
				for id, mean := range members(tt.table, result) {
					centroid := result.Centroids[id-1].Features
					for j := range mean {
						assert.InDelta(t, mean[j], centroid[j], math.Abs(mean[j])*1e-12)
					}
				}
			}
		})
	}
}

func TestKMeans_HugeValuesSplit(t *testing.T) {
	table := newTable([]float64{0}, []float64{1e160}, []float64{1e200}, []float64{1.1e200})

	result, err := NewKMeans().Run(table, 2, 0)
	require.NoError(t, err)
	assert.True(t, result.Converged)

	clusters := make([]int, 0)
	for _, a := range result.Assignments {
		clusters = append(clusters, a.Cluster)
	}
	assert.Equal(t, clusters[0], clusters[1])
	assert.Equal(t, clusters[2], clusters[3])
	assert.NotEqual(t, clusters[0], clusters[2])
}

func TestParseInit(t *testing.T) {
	i, err := ParseInit("kmeans++")
	assert.NoError(t, err)
	assert.Equal(t, PlusPlus, i)

	i, err = ParseInit("Random")
	assert.NoError(t, err)
	assert.Equal(t, RandomSample, i)

	_, err = ParseInit("forgy")
	assert.True(t, errors.Is(err, model.ParameterErr))
}
