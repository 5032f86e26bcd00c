package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	SchemaErr     = errors.New("inconsistent schema")
	ParseErr      = errors.New("could not parse")
	ParameterErr  = errors.New("invalid parameter")
	EmptyInputErr = errors.New("no data")
)

// Violation is a row whose feature count does not match the table.
type Violation struct {
	Line     int `json:"line"`
	Features int `json:"features"`
}

// SchemaError reports every row that breaks the feature count of the table.
type SchemaError struct {
	Expected   int
	Violations []Violation
	// Reason is set for schema problems that are not about a specific row.
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", SchemaErr.Error(), e.Reason)
	}
	msg := make([]string, 0, len(e.Violations)+1)
	msg = append(msg, fmt.Sprintf("%s: %d rows do not have %d features", SchemaErr.Error(), len(e.Violations), e.Expected))
	for _, v := range e.Violations {
		msg = append(msg, fmt.Sprintf("row at line %d has %d features instead of %d", v.Line, v.Features, e.Expected))
	}
	return strings.Join(msg, "\n")
}

func (e *SchemaError) Unwrap() error {
	return SchemaErr
}
