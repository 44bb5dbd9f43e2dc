package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions detected locally, before any network call.
var (
	ErrBusy              = errors.New("an operation is already in flight")
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
	ErrUnknownTable      = errors.New("unknown table")
)

// TransportError reports a request that could not complete, or completed
// with a non-success HTTP status.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProcessingError reports a preview request whose response body indicated
// failure. The message comes from the server when available.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	if e.Message == "" {
		return "the server could not process the file"
	}
	return e.Message
}

// InsertionError reports an insertion request whose response body indicated
// failure. The message comes from the server when available.
type InsertionError struct {
	Message string
}

func (e *InsertionError) Error() string {
	if e.Message == "" {
		return "the server could not insert the data"
	}
	return e.Message
}

// IncompleteMappingError lists every destination column still lacking a
// source assignment, so all problems surface at once.
type IncompleteMappingError struct {
	Missing []string
}

func (e *IncompleteMappingError) Error() string {
	return "unmapped destination columns: " + strings.Join(e.Missing, ", ")
}

// MissingTableMetadataError lists the absent table-level fields of a
// new-table definition.
type MissingTableMetadataError struct {
	Missing []string
}

func (e *MissingTableMetadataError) Error() string {
	return "missing table metadata: " + strings.Join(e.Missing, ", ")
}
