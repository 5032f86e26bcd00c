package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	Comma = ','
	Tab   = '\t'

	// Auto picks the delimiter based on the file extension.
	Auto = "auto"
)

// Record is a raw row of the input file.
type Record struct {
	// Line is the 1-based line of the record in the file.
	Line   int
	Fields []string
}

// Empty is true if the record carries no value at all.
func (r Record) Empty() bool {
	for _, f := range r.Fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Delimiter resolves the delimiter name for the given file.
func Delimiter(path string, name string) (rune, error) {
	switch strings.ToLower(name) {
	case "", Auto:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tsv", ".tab":
			return Tab, nil
		default:
			return Comma, nil
		}
	case ",", "comma":
		return Comma, nil
	case "\t", `\t`, "tab":
		return Tab, nil
	}
	return 0, fmt.Errorf("unknown delimiter '%s'", name)
}

// Read reads all records from the given reader.
// Records may have a different number of fields, the schema is checked further downstream.
func Read(r io.Reader, delimiter rune) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	records := make([]Record, 0)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read record %d: %w", len(records)+1, err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, Record{
			Line:   line,
			Fields: fields,
		})
	}
	return records, nil
}

// Open reads all records of the file at the given path.
func Open(path string, delimiter rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file '%s': %w", path, err)
	}
	defer f.Close()

	records, err := Read(f, delimiter)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", path, err)
	}

	log.Debug().
		Str("file", path).
		Str("delimiter", string(delimiter)).
		Int("records", len(records)).
		Msg("read input")

	return records, nil
}
