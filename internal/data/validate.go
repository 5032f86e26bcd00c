package data

import (
	"fmt"

	"github.com/drakos74/free-cluster/internal/model"
	"github.com/drakos74/free-cluster/internal/storage/file"
	"github.com/rs/zerolog/log"
)

// rows returns the data records, skipping the header and empty records.
func rows(records []file.Record, header bool) []file.Record {
	data := make([]file.Record, 0, len(records))
	skip := header
	for _, r := range records {
		if r.Empty() {
			continue
		}
		if skip {
			skip = false
			continue
		}
		data = append(data, r)
	}
	return data
}

// Validate checks that all data rows have the same number of features and returns that number.
// It scans the whole input and reports all offending rows at once.
func Validate(records []file.Record, header bool) (int, error) {
	data := rows(records, header)
	if len(data) == 0 {
		return 0, fmt.Errorf("no rows found after skipping header and empty lines: %w", model.EmptyInputErr)
	}

	featureCount := len(data[0].Fields) - 1
	if featureCount < 1 {
		return 0, &model.SchemaError{
			Reason: fmt.Sprintf("first data row at line %d has no feature columns", data[0].Line),
		}
	}

	violations := make([]model.Violation, 0)
	for _, r := range data[1:] {
		if c := len(r.Fields) - 1; c != featureCount {
			violations = append(violations, model.Violation{
				Line:     r.Line,
				Features: c,
			})
		}
	}

	if len(violations) > 0 {
		log.Error().
			Int("expected", featureCount).
			Int("violations", len(violations)).
			Msg("inconsistent feature count")
		return 0, &model.SchemaError{
			Expected:   featureCount,
			Violations: violations,
		}
	}

	return featureCount, nil
}
