package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/drakos74/free-cluster/internal/storage/file"
	"github.com/rs/zerolog/log"
)

// Load parses the records into a table with the given number of features.
// Rows that do not match the feature count are refused, even if Validate was skipped.
func Load(records []file.Record, header bool, featureCount int) (model.Table, error) {
	if featureCount < 1 {
		return model.Table{}, fmt.Errorf("feature count must be positive but was %d: %w", featureCount, model.ParameterErr)
	}

	data := rows(records, header)
	if len(data) == 0 {
		return model.Table{}, fmt.Errorf("nothing to load: %w", model.EmptyInputErr)
	}

	table := model.Table{
		FeatureCount: featureCount,
		Rows:         make([]model.Row, len(data)),
	}

	for i, r := range data {
		if c := len(r.Fields) - 1; c != featureCount {
			return model.Table{}, &model.SchemaError{
				Expected:   featureCount,
				Violations: []model.Violation{{Line: r.Line, Features: c}},
			}
		}
		label := strings.TrimSpace(r.Fields[0])
		if label == "" {
			label = model.DefaultLabel
		}
		features := make([]float64, featureCount)
		for j := 0; j < featureCount; j++ {
			v, err := parse(r.Fields[j+1])
			if err != nil {
				return model.Table{}, fmt.Errorf("could not load feature at line %d column %d: %w", r.Line, j+2, err)
			}
			features[j] = v
		}
		table.Rows[i] = model.Row{
			Label:    label,
			Features: features,
		}
	}

	log.Debug().
		Int("rows", len(table.Rows)).
		Int("features", featureCount).
		Msg("loaded table")

	return table, nil
}

func parse(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a number: %w", s, model.ParseErr)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("'%s' is not a finite number: %w", s, model.ParseErr)
	}
	return v, nil
}

// ReadTable validates and loads the records in one go.
func ReadTable(records []file.Record, header bool) (model.Table, error) {
	featureCount, err := Validate(records, header)
	if err != nil {
		return model.Table{}, fmt.Errorf("could not validate input: %w", err)
	}
	return Load(records, header, featureCount)
}
