// Package history keeps a local memory of parsed errors and the fixes that
// resolved them, backed by SQLite.
package history

import (
	"time"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// Solution is a remembered fix for an error.
type Solution struct {
	ID        string         `json:"id"`
	Error     string         `json:"error"`
	ErrorType string         `json:"error_type"`
	Language  core.Ecosystem `json:"language"`
	Solution  string         `json:"solution"`
	CreatedAt time.Time      `json:"created_at"`
}

// ErrorSummary aggregates recorded occurrences of one error type.
type ErrorSummary struct {
	ErrorType string         `json:"error_type"`
	Language  core.Ecosystem `json:"language"`
	Count     int            `json:"count"`
	LastSeen  time.Time      `json:"last_seen"`
}

// Store defines the interface for history persistence.
type Store interface {
	// Open opens a connection to the store at path.
	Open(path string) error
	// Close closes the connection.
	Close() error
	// Migrate brings the schema up to date.
	Migrate() error

	// AddSolution remembers a fix for the given error text.
	AddSolution(errText, solution string) (*Solution, error)
	// SearchSolutions finds fixes whose error resembles query, best match first.
	SearchSolutions(query string, limit int) ([]Solution, error)

	// RecordErrors stores one occurrence per record and returns how many were written.
	RecordErrors(source string, records []core.ErrorRecord) (int, error)
	// TopErrors returns the most frequently recorded error types.
	TopErrors(limit int) ([]ErrorSummary, error)
}

// DefaultLimit caps result sets when callers pass a non-positive limit.
const DefaultLimit = 20
