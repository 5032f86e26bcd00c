package cluster

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/drakos74/free-cluster/infra/config"
	"github.com/drakos74/free-cluster/internal/data"
	"github.com/drakos74/free-cluster/internal/math/ml"
	"github.com/drakos74/free-cluster/internal/model"
	"github.com/drakos74/free-cluster/internal/storage"
	"github.com/drakos74/free-cluster/internal/storage/file"
	"github.com/drakos74/free-cluster/internal/storage/file/csv"
	"github.com/drakos74/free-cluster/internal/storage/file/json"
	"github.com/drakos74/free-cluster/internal/sweep"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Snapshot is the persisted outcome of a single k.
type Snapshot struct {
	RunID      string           `json:"run_id"`
	Input      string           `json:"input"`
	K          int              `json:"k"`
	Seed       int64            `json:"seed"`
	Init       string           `json:"init"`
	Bounds     model.Bounds     `json:"bounds,omitempty"`
	Centroids  []model.Centroid `json:"centroids"`
	Metrics    model.Metrics    `json:"metrics"`
	Iterations int              `json:"iterations"`
	Converged  bool             `json:"converged"`
}

// Report is the outcome of a full engine run.
type Report struct {
	RunID   string
	Table   model.Table
	Bounds  model.Bounds
	Entries []sweep.Entry
}

// Failed returns the entries of the run that carry an error.
func (r Report) Failed() []sweep.Entry {
	return sweep.Failed(r.Entries)
}

// Engine wires the input, the clustering and the writers of a run together.
type Engine struct {
	runID  string
	cfg    config.Config
	sink   sweep.Sink
	store  storage.Persistence
	kmeans *ml.KMeans
}

// NewEngine creates a new engine for the given config.
func NewEngine(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	scheme, err := ml.ParseInit(cfg.Init)
	if err != nil {
		return nil, err
	}

	var sink sweep.Sink = sweep.VoidSink{}
	if cfg.Metrics != "" {
		sink = csv.NewMetricsLog(cfg.Metrics)
	}
	var store storage.Persistence = storage.NewVoidStorage()
	if cfg.Snapshot != "" {
		store = json.NewBlob(cfg.Snapshot)
	}

	return &Engine{
		runID: uuid.New().String(),
		cfg:   cfg,
		sink:  sink,
		store: store,
		kmeans: ml.NewKMeans().
			WithInit(scheme).
			WithMaxIterations(cfg.MaxIterations),
	}, nil
}

// WithSink overrides the sink of the sweep metrics.
func (e *Engine) WithSink(sink sweep.Sink) *Engine {
	e.sink = sink
	return e
}

// WithStorage overrides the storage of the snapshots.
func (e *Engine) WithStorage(store storage.Persistence) *Engine {
	e.store = store
	return e
}

// RunID is the unique id of the engine run.
func (e *Engine) RunID() string {
	return e.runID
}

// Run loads the input, clusters it for the configured k range and writes the results.
// Input and parameter errors abort the run, a failure for a single k only marks its entry.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: e.runID}
	start := time.Now()

	delimiter, err := file.Delimiter(e.cfg.Input, e.cfg.Delimiter)
	if err != nil {
		return report, fmt.Errorf("%s: %w", err.Error(), model.ParameterErr)
	}
	records, err := file.Open(e.cfg.Input, delimiter)
	if err != nil {
		return report, err
	}
	table, err := data.ReadTable(records, e.cfg.Header)
	if err != nil {
		log.Error().Err(err).Str("run", e.runID).Str("file", e.cfg.Input).Msg("could not load input")
		return report, fmt.Errorf("could not load '%s': %w", e.cfg.Input, err)
	}

	if e.cfg.Normalize {
		table, report.Bounds, err = ml.Normalize(table)
		if err != nil {
			return report, fmt.Errorf("could not normalize '%s': %w", e.cfg.Input, err)
		}
	}
	report.Table = table

	from, to := e.cfg.Range()
	log.Info().
		Str("run", e.runID).
		Str("file", e.cfg.Input).
		Int("rows", table.Size()).
		Int("features", table.FeatureCount).
		Bool("normalize", e.cfg.Normalize).
		Int("from", from).
		Int("to", to).
		Msg("clustering started")

	entries, err := sweep.New(e.kmeans).
		WithWorkers(e.cfg.Workers).
		WithSink(e.sink).
		Run(ctx, table, from, to, e.cfg.Seed)
	if err != nil {
		return report, err
	}

	for i, entry := range entries {
		if entry.Err != nil {
			continue
		}
		if err := e.write(ctx, table, report.Bounds, entry); err != nil {
			log.Error().Err(err).Str("run", e.runID).Int("k", entry.K).Msg("could not write result")
			entries[i].Err = err
		}
	}
	report.Entries = entries

	log.Info().
		Str("run", e.runID).
		Int("entries", len(entries)).
		Int("failed", len(sweep.Failed(entries))).
		Dur("duration", time.Since(start)).
		Msg("clustering complete")

	return report, nil
}

func (e *Engine) write(ctx context.Context, table model.Table, bounds model.Bounds, entry sweep.Entry) error {
	if e.cfg.Output != "" {
		path := e.cfg.Output
		if e.cfg.Sweep() {
			path = csv.ResultPath(path, entry.K)
		}
		if err := csv.SaveResult(ctx, path, table, entry.Result); err != nil {
			return fmt.Errorf("could not save result for k=%d: %w", entry.K, err)
		}
	}

	key := storage.Key{Label: label(e.cfg.Input), K: entry.K}
	err := e.store.Store(key, Snapshot{
		RunID:      e.runID,
		Input:      e.cfg.Input,
		K:          entry.K,
		Seed:       e.cfg.Seed,
		Init:       e.kmeans.Init().String(),
		Bounds:     bounds,
		Centroids:  entry.Result.Centroids,
		Metrics:    entry.Metrics,
		Iterations: entry.Result.Iterations,
		Converged:  entry.Result.Converged,
	})
	if err != nil {
		return fmt.Errorf("could not store snapshot for k=%d: %w", entry.K, err)
	}
	return nil
}

// label is the input file name without its extension.
func label(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
