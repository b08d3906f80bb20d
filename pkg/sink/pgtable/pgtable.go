// Package pgtable writes result sets into their entity tables in PostgreSQL.
package pgtable

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/salesstore"
	"github.com/chainsafe/sales-sync/pkg/sink"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// ErrNoTable is returned for specs that do not name a destination table.
var ErrNoTable = errors.New("spec has no destination table")

// Sink upserts records by the entity key and reads the watermark back with MAX(date column).
type Sink struct {
	store  salesstore.RecordStore
	logger *zap.Logger
}

var (
	_ sink.Sink      = (*Sink)(nil)
	_ sink.Watermark = (*Sink)(nil)
)

// New creates a table sink backed by store.
func New(store salesstore.RecordStore, logger *zap.Logger) *Sink {
	return &Sink{store: store, logger: logger}
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return "table" }

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	if spec.Table == "" {
		return fmt.Errorf("%w: %s", ErrNoTable, spec.Name)
	}
	if rs.Len() == 0 {
		return nil
	}

	n, err := s.store.InsertRecords(ctx, spec.Table, spec.Key, rs.Columns, rs.Records)
	if err != nil {
		return err
	}
	if skipped := rs.Len() - n; skipped > 0 {
		s.logger.Warn("records without key skipped",
			zap.String("table", spec.Table),
			zap.String("key", spec.Key),
			zap.Int("skipped", skipped),
		)
	}
	return nil
}

// MaxDate implements sink.Watermark. Entities without a date column have no
// watermark, and neither does a table that was not created yet.
func (s *Sink) MaxDate(ctx context.Context, spec *entity.Spec) (*int64, error) {
	if spec.DateColumn == "" {
		return nil, nil
	}
	if spec.Table == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, spec.Name)
	}
	wm, err := s.store.MaxInt(ctx, spec.Table, spec.DateColumn)
	if errors.Is(err, salesstore.ErrTableNotFound) {
		s.logger.Warn("Watermark table missing, using lookback",
			zap.String("entity", spec.Name),
			zap.String("table", spec.Table),
		)
		return nil, nil
	}
	return wm, err
}
