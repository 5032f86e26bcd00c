package model

import (
	"fmt"
	"strings"
)

// DefaultLabel is used for rows that come without a label.
const DefaultLabel = "unlabeled"

// Row is a single labeled feature vector.
type Row struct {
	Label    string    `json:"label"`
	Features []float64 `json:"features"`
}

// Table is an ordered set of rows, all with the same number of features.
type Table struct {
	FeatureCount int   `json:"feature_count"`
	Rows         []Row `json:"rows"`
}

// Size returns the number of rows in the table.
func (t Table) Size() int {
	return len(t.Rows)
}

// Vectors returns the feature vectors of the table in row order.
// The vectors are shared with the table and must not be modified.
func (t Table) Vectors() [][]float64 {
	vv := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		vv[i] = row.Features
	}
	return vv
}

// Bound is the observed range of a single feature.
type Bound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Degenerate is true for a constant feature.
func (b Bound) Degenerate() bool {
	return b.Max == b.Min
}

// Bounds holds the range of every feature of a table, indexed by feature.
type Bounds []Bound

// Centroid is the representative vector of a cluster.
type Centroid struct {
	// ID is 1-based.
	ID       int       `json:"id"`
	Features []float64 `json:"features"`
}

// Assignment is the clustering outcome for a single row.
type Assignment struct {
	// Cluster is the 1-based id of the closest centroid.
	Cluster int `json:"cluster"`
	// Distances holds the euclidean distance to every centroid,
	// index i corresponds to cluster i+1.
	Distances []float64 `json:"distances"`
}

// Distance returns the distance of the row to its own cluster.
func (a Assignment) Distance() float64 {
	return a.Distances[a.Cluster-1]
}

// Result is the output of a single clustering run.
type Result struct {
	K           int          `json:"k"`
	Centroids   []Centroid   `json:"centroids"`
	Assignments []Assignment `json:"assignments"`
	Iterations  int          `json:"iterations"`
	Converged   bool         `json:"converged"`
	// Inertia is the sum of squared distances of every row to its cluster,
	// recorded after each assignment step.
	Inertia []float64 `json:"inertia"`
}

// Metrics are the aggregate quality figures of a clustering result.
type Metrics struct {
	Clusters        int     `json:"clusters"`
	AverageDistance float64 `json:"average_distance"`
	BestDistance    float64 `json:"best_distance"`
	WorstDistance   float64 `json:"worst_distance"`
	// BestRow and WorstRow are the 0-based indexes of the rows holding the best and worst distance.
	BestRow    int         `json:"best_row"`
	WorstRow   int         `json:"worst_row"`
	Population map[int]int `json:"population"`
}

// PopulationString formats the population of every cluster in id order e.g. "1:4 2:0 3:6".
func (m Metrics) PopulationString() string {
	parts := make([]string, 0, m.Clusters)
	for id := 1; id <= m.Clusters; id++ {
		parts = append(parts, fmt.Sprintf("%d:%d", id, m.Population[id]))
	}
	return strings.Join(parts, " ")
}
