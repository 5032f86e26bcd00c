package ml

import (
	"fmt"

	"github.com/drakos74/free-cluster/internal/buffer"
	"github.com/drakos74/free-cluster/internal/model"
)

// Aggregate reduces the assignments to the distance metrics and the population of every cluster.
// Every cluster id up to the number of centroids is present in the population, even if empty.
// Ties for the best and worst distance go to the first row.
func Aggregate(assignments []model.Assignment) (model.Metrics, error) {
	if len(assignments) == 0 {
		return model.Metrics{}, fmt.Errorf("cannot aggregate empty assignments: %w", model.ParameterErr)
	}

	k := len(assignments[0].Distances)
	population := make(map[int]int, k)
	for id := 1; id <= k; id++ {
		population[id] = 0
	}

	stats := buffer.NewStats()
	for i, a := range assignments {
		if len(a.Distances) != k {
			return model.Metrics{}, fmt.Errorf("row %d has %d distances instead of %d: %w", i, len(a.Distances), k, model.ParameterErr)
		}
		if a.Cluster < 1 || a.Cluster > k {
			return model.Metrics{}, fmt.Errorf("row %d is assigned to unknown cluster %d: %w", i, a.Cluster, model.ParameterErr)
		}
		stats.Push(a.Distance())
		population[a.Cluster]++
	}

	return model.Metrics{
		Clusters:        k,
		AverageDistance: stats.Avg(),
		BestDistance:    stats.Min(),
		WorstDistance:   stats.Max(),
		BestRow:         stats.ArgMin(),
		WorstRow:        stats.ArgMax(),
		Population:      population,
	}, nil
}
