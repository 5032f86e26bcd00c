package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/drakos74/free-cluster/internal/sweep"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

var header = []string{"K", "Average", "Best", "Worst", "Iterations", "Converged", "Population", "Error"}

// Table renders a summary line per k, in the given order.
func Table(w io.Writer, entries []sweep.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	for _, e := range entries {
		if e.Err != nil {
			table.Append([]string{strconv.Itoa(e.K), "", "", "", "", "", "", e.Err.Error()})
			continue
		}
		table.Append([]string{
			strconv.Itoa(e.K),
			format(e.Metrics.AverageDistance),
			format(e.Metrics.BestDistance),
			format(e.Metrics.WorstDistance),
			strconv.Itoa(e.Result.Iterations),
			strconv.FormatBool(e.Result.Converged),
			e.Metrics.PopulationString(),
			"",
		})
	}
	table.Render()
}

// Elbow plots the average distance against k for the successful entries.
// It writes nothing if fewer than two entries succeeded.
func Elbow(w io.Writer, entries []sweep.Entry) error {
	series := make([]float64, 0, len(entries))
	first, last := 0, 0
	for _, e := range entries {
		if e.Err != nil {
			continue
		}
		if len(series) == 0 {
			first = e.K
		}
		last = e.K
		series = append(series, e.Metrics.AverageDistance)
	}
	if len(series) < 2 {
		return nil
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Caption(fmt.Sprintf("average distance for k in [%d,%d]", first, last)),
	)
	_, err := fmt.Fprintln(w, graph)
	return err
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
