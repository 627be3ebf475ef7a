// Package store provides read-only access to the loaded reference tables.
package store

import (
	"context"

	"github.com/sells-group/county-health-api/internal/model"
)

// TableInfo describes one table's columns and their declared types.
type TableInfo struct {
	Columns []string          `json:"columns"`
	Types   map[string]string `json:"types"`
}

// Store defines the persistence interface for the lookup service. Both
// reference tables are populated offline by the loader; every method here
// is a read.
type Store interface {
	// CountiesForZip returns the distinct county tuples the given 5-digit
	// ZIP maps to. An unknown ZIP yields an empty slice, not an error.
	CountiesForZip(ctx context.Context, zip string) ([]model.County, error)

	// HealthRecords returns every ranking row for the county and measure,
	// ordered by year_span descending (plain string comparison).
	HealthRecords(ctx context.Context, county model.County, measureName string) ([]model.HealthRecord, error)

	// Tables enumerates every table with its column names and declared types.
	Tables(ctx context.Context) (map[string]TableInfo, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
