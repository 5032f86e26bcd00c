package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/drakos74/free-cluster/internal/model"
)

// MetricsHeader is the header of the sweep metrics file.
var MetricsHeader = []string{"ClusterCount", "AverageDistance", "BestDistance", "WorstDistance"}

// MetricsLog appends the metrics of every completed k to a file.
// The header is only written to a new or empty file.
type MetricsLog struct {
	path  string
	mutex *sync.Mutex
}

// NewMetricsLog creates a metrics log for the given file.
func NewMetricsLog(path string) *MetricsLog {
	return &MetricsLog{
		path:  path,
		mutex: new(sync.Mutex),
	}
}

// Path returns the file the log appends to.
func (l *MetricsLog) Path() string {
	return l.path
}

func (l *MetricsLog) Append(k int, metrics model.Metrics) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not make dir: %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("could not open metrics file '%s': %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("could not stat metrics file '%s': %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(MetricsHeader); err != nil {
			return fmt.Errorf("could not write header to '%s': %w", l.path, err)
		}
	}
	if err := w.Write([]string{
		strconv.Itoa(k),
		format(metrics.AverageDistance),
		format(metrics.BestDistance),
		format(metrics.WorstDistance),
	}); err != nil {
		return fmt.Errorf("could not write metrics for k=%d to '%s': %w", k, l.path, err)
	}
	w.Flush()
	return w.Error()
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
