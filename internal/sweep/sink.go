package sweep

import (
	"fmt"
	"sync"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/rs/zerolog/log"
)

// Sink receives the metrics of every completed k.
// Calls are serialised by the coordinator.
type Sink interface {
	Append(k int, metrics model.Metrics) error
}

// VoidSink ignores all metrics.
type VoidSink struct {
}

func (v VoidSink) Append(k int, metrics model.Metrics) error {
	return nil
}

// collector is the single point where concurrent runs hand over their results.
type collector struct {
	mutex   *sync.Mutex
	sink    Sink
	entries []Entry
}

func newCollector(sink Sink, size int) *collector {
	if sink == nil {
		sink = VoidSink{}
	}
	return &collector{
		mutex:   new(sync.Mutex),
		sink:    sink,
		entries: make([]Entry, 0, size),
	}
}

func (c *collector) add(entry Entry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry.Err == nil {
		if err := c.sink.Append(entry.K, entry.Metrics); err != nil {
			log.Error().Err(err).Int("k", entry.K).Msg("could not append metrics")
			entry.Err = fmt.Errorf("could not append metrics for k=%d: %w", entry.K, err)
		}
	}
	c.entries = append(c.entries, entry)
}
