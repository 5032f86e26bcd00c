package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/drakos74/free-cluster/internal/math/ml"
	"github.com/drakos74/free-cluster/internal/metrics"
	"github.com/drakos74/free-cluster/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Clusterer runs a single clustering for the given k.
type Clusterer interface {
	Run(table model.Table, k int, seed int64) (model.Result, error)
}

// Entry is the outcome of the clustering for a single k.
type Entry struct {
	K        int
	Metrics  model.Metrics
	Result   model.Result
	Duration time.Duration
	Err      error
}

// Coordinator runs the clustering for a range of k values in parallel.
type Coordinator struct {
	engine  Clusterer
	workers int
	sink    Sink
}

// New creates a new coordinator for the given engine.
func New(engine Clusterer) *Coordinator {
	return &Coordinator{
		engine:  engine,
		workers: runtime.NumCPU(),
		sink:    VoidSink{},
	}
}

// WithWorkers limits the number of concurrent runs.
func (c *Coordinator) WithWorkers(workers int) *Coordinator {
	if workers > 0 {
		c.workers = workers
	}
	return c
}

// WithSink sets the sink that receives the metrics of every completed k.
func (c *Coordinator) WithSink(sink Sink) *Coordinator {
	c.sink = sink
	return c
}

// Run clusters the table for every k in [from, to] and returns the entries ordered by k.
// A failing k does not stop the others, its entry carries the error instead.
func (c *Coordinator) Run(ctx context.Context, table model.Table, from, to int, seed int64) ([]Entry, error) {
	n := table.Size()
	if n == 0 {
		return nil, fmt.Errorf("cannot sweep empty table: %w", model.EmptyInputErr)
	}
	if from > to {
		return nil, fmt.Errorf("range start %d is after range end %d: %w", from, to, model.ParameterErr)
	}
	if from < 1 || to > n {
		return nil, fmt.Errorf("range [%d,%d] is outside [1,%d]: %w", from, to, n, model.ParameterErr)
	}

	collector := newCollector(c.sink, to-from+1)

	group := new(errgroup.Group)
	group.SetLimit(c.workers)
	for k := from; k <= to; k++ {
		k := k
		group.Go(func() error {
			collector.add(c.run(ctx, table, k, seed))
			return nil
		})
	}
	// tasks never fail the group
	_ = group.Wait()

	entries := collector.entries
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].K < entries[j].K
	})
	return entries, nil
}

func (c *Coordinator) run(ctx context.Context, table model.Table, k int, seed int64) Entry {
	entry := Entry{K: k}
	if err := ctx.Err(); err != nil {
		entry.Err = fmt.Errorf("sweep cancelled before k=%d: %w", k, err)
		return entry
	}

	start := time.Now()
	result, err := c.engine.Run(table, k, seed)
	entry.Duration = time.Since(start)
	if err != nil {
		metrics.Observer.Fail()
		log.Error().Err(err).Int("k", k).Msg("could not cluster")
		entry.Err = fmt.Errorf("could not cluster for k=%d: %w", k, err)
		return entry
	}
	metrics.Observer.Run(result.Iterations, result.Converged, entry.Duration)

	m, err := ml.Aggregate(result.Assignments)
	if err != nil {
		entry.Err = fmt.Errorf("could not aggregate metrics for k=%d: %w", k, err)
		return entry
	}

	entry.Result = result
	entry.Metrics = m

	log.Debug().
		Int("k", k).
		Int("iterations", result.Iterations).
		Bool("converged", result.Converged).
		Float64("avg", m.AverageDistance).
		Dur("duration", entry.Duration).
		Msg("clustering complete")

	return entry
}

// Failed returns the entries that carry an error.
func Failed(entries []Entry) []Entry {
	failed := make([]Entry, 0)
	for _, e := range entries {
		if e.Err != nil {
			failed = append(failed, e)
		}
	}
	return failed
}
