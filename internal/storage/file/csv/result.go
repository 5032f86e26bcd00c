package csv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/rs/zerolog/log"
)

const (
	LabelColumn    = "Label"
	FeatureColumn  = "Feature%d"
	ClusterColumn  = "ClusterID"
	DistanceColumn = "DistanceToCluster%d"
)

// ResultPath returns the result file for the given k, e.g. out.csv becomes out_k3.csv.
func ResultPath(path string, k int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_k%d%s", strings.TrimSuffix(path, ext), k, ext)
}

// Frame builds the result frame with one row per table row in the original order.
func Frame(table model.Table, result model.Result) (*dataframe.DataFrame, error) {
	n := table.Size()
	if n == 0 {
		return nil, fmt.Errorf("nothing to write: %w", model.ParameterErr)
	}
	if len(result.Assignments) != n {
		return nil, fmt.Errorf("%d assignments for %d rows: %w", len(result.Assignments), n, model.ParameterErr)
	}

	labels := make([]interface{}, n)
	clusters := make([]interface{}, n)
	features := make([][]interface{}, table.FeatureCount)
	for j := range features {
		features[j] = make([]interface{}, n)
	}
	distances := make([][]interface{}, result.K)
	for j := range distances {
		distances[j] = make([]interface{}, n)
	}

	for i, row := range table.Rows {
		labels[i] = row.Label
		for j, f := range row.Features {
			features[j][i] = f
		}
		a := result.Assignments[i]
		if len(a.Distances) != result.K {
			return nil, fmt.Errorf("row %d has %d distances for k=%d: %w", i, len(a.Distances), result.K, model.ParameterErr)
		}
		clusters[i] = int64(a.Cluster)
		for j, d := range a.Distances {
			distances[j][i] = d
		}
	}

	series := make([]dataframe.Series, 0, table.FeatureCount+result.K+2)
	series = append(series, dataframe.NewSeriesString(LabelColumn, nil, labels...))
	for j, vv := range features {
		series = append(series, dataframe.NewSeriesFloat64(fmt.Sprintf(FeatureColumn, j), nil, vv...))
	}
	series = append(series, dataframe.NewSeriesInt64(ClusterColumn, nil, clusters...))
	for j, vv := range distances {
		series = append(series, dataframe.NewSeriesFloat64(fmt.Sprintf(DistanceColumn, j+1), nil, vv...))
	}
	return dataframe.NewDataFrame(series...), nil
}

// WriteResult writes the per-row result of a clustering run.
func WriteResult(ctx context.Context, w io.Writer, table model.Table, result model.Result) error {
	df, err := Frame(table, result)
	if err != nil {
		return err
	}
	if err := exports.ExportToCSV(ctx, w, df); err != nil {
		return fmt.Errorf("could not export result for k=%d: %w", result.K, err)
	}
	return nil
}

// SaveResult writes the per-row result of a clustering run to the given file.
func SaveResult(ctx context.Context, path string, table model.Table, result model.Result) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not make dir: %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", path, err)
	}
	defer f.Close()

	if err := WriteResult(ctx, f, table, result); err != nil {
		return fmt.Errorf("could not write file '%s': %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("k", result.K).
		Int("rows", table.Size()).
		Msg("saved result")
	return nil
}
