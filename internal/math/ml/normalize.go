package ml

import (
	"fmt"
	"math"

	"github.com/drakos74/free-cluster/internal/model"
	"gonum.org/v1/gonum/floats"
)

// Fit computes the min and max of every feature of the table.
func Fit(table model.Table) model.Bounds {
	bounds := make(model.Bounds, table.FeatureCount)
	if table.Size() == 0 {
		return bounds
	}
	column := make([]float64, table.Size())
	for j := 0; j < table.FeatureCount; j++ {
		for i, row := range table.Rows {
			column[i] = row.Features[j]
		}
		bounds[j] = model.Bound{
			Min: floats.Min(column),
			Max: floats.Max(column),
		}
	}
	return bounds
}

// Transform rescales every feature of the table to [0,1] based on the given bounds.
// Constant features, where min equals max, are mapped to 0.
// The input table is left untouched.
func Transform(table model.Table, bounds model.Bounds) (model.Table, error) {
	if len(bounds) != table.FeatureCount {
		return model.Table{}, fmt.Errorf("bounds for %d features cannot transform table with %d features: %w",
			len(bounds), table.FeatureCount, model.ParameterErr)
	}
	scaled := model.Table{
		FeatureCount: table.FeatureCount,
		Rows:         make([]model.Row, len(table.Rows)),
	}
	for i, row := range table.Rows {
		features := make([]float64, table.FeatureCount)
		for j, v := range row.Features {
			b := bounds[j]
			if b.Degenerate() {
				continue
			}
			features[j] = scale(v, b)
		}
		scaled.Rows[i] = model.Row{
			Label:    row.Label,
			Features: features,
		}
	}
	return scaled, nil
}

// scale maps v from [min,max] to [0,1].
// Ranges wider than the float64 range are halved first.
func scale(v float64, b model.Bound) float64 {
	span := b.Max - b.Min
	if math.IsInf(span, 0) {
		return (v/2 - b.Min/2) / (b.Max/2 - b.Min/2)
	}
	return (v - b.Min) / span
}

// Normalize fits the bounds on the table and transforms it.
func Normalize(table model.Table) (model.Table, model.Bounds, error) {
	bounds := Fit(table)
	scaled, err := Transform(table, bounds)
	return scaled, bounds, err
}
