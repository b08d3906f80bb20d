// Package salesstore persists synced vendor records and the run log in PostgreSQL.
package salesstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// ErrTableNotFound is returned when a watermark is requested from a table that was never migrated.
var ErrTableNotFound = errors.New("table not found")

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunPartial   = "partial"
	RunFailed    = "failed"
	RunEmpty     = "empty"
)

// Run is one recorded execution of the sync procedure for a single entity.
type Run struct {
	ID                 uuid.UUID
	Entity             string
	Status             string
	Window             syncer.Window
	Records            int
	Pages              int
	Requests           int
	EnrichmentFailures int
	Error              string
	StartedAt          time.Time
	FinishedAt         time.Time
}

// RecordStore writes flat records into entity tables.
type RecordStore interface {
	// InsertRecords writes rows into table. When key is set, rows with a
	// known key are updated in place; otherwise conflicting rows are left
	// untouched. Rows without a key value are skipped. It returns the number
	// of rows sent to the database.
	InsertRecords(ctx context.Context, table, key string, columns []string, rows []syncer.Record) (int, error)
	// MaxInt returns the largest value of column in table, or nil if the table is empty.
	MaxInt(ctx context.Context, table, column string) (*int64, error)
}

// RunStore keeps the run log.
type RunStore interface {
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, entity string, limit int) ([]*Run, error)
}

// Store defines the interface for sales data persistence
type Store interface {
	RecordStore
	RunStore
}
