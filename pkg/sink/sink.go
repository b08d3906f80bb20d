// Package sink defines where result sets are persisted and how the last
// persisted date of an entity is read back.
package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/internal/metrics"
	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// Sink persists one result set.
type Sink interface {
	Name() string
	Write(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error
}

// Watermark reads the newest persisted date of an entity. A nil result
// means nothing was persisted yet.
type Watermark interface {
	MaxDate(ctx context.Context, spec *entity.Spec) (*int64, error)
}

// Multi writes to every sink in order. A failing sink does not stop the
// remaining ones; all errors are joined.
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMulti creates a fan-out sink.
func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Write implements Sink.
func (m *Multi) Write(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, spec, rs); err != nil {
			metrics.ErrorsTotal.WithLabelValues("sink_"+s.Name(), "write").Inc()
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
			continue
		}
		metrics.RecordsWritten.WithLabelValues(rs.Entity, s.Name()).Add(float64(rs.Len()))
		m.logger.Info("result set written",
			zap.String("sink", s.Name()),
			zap.String("entity", rs.Entity),
			zap.String("table", spec.Table),
			zap.Int("records", rs.Len()),
		)
	}
	return errors.Join(errs...)
}

// FileName returns the CSV file name of a result set: one file per window,
// or a single file for unwindowed dumps. An unwindowed fetch of a dated
// entity is a lookup and never takes the name of the accumulated file.
func FileName(spec *entity.Spec, w syncer.Window) string {
	if w.IsZero() {
		if spec.DateColumn != "" {
			return spec.Table + "_lookup.csv"
		}
		return spec.Table + ".csv"
	}
	return fmt.Sprintf("%s_%d_to_%d.csv", spec.Table, w.StartUnix(), w.EndUnix())
}

// EncodeCSV writes a header row followed by one row per record.
func EncodeCSV(w io.Writer, rs *syncer.ResultSet, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(rs.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	row := make([]string, len(rs.Columns))
	for _, rec := range rs.Records {
		for i, col := range rs.Columns {
			row[i] = FormatValue(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a record value as a CSV cell. Nil renders empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case decimal.Decimal:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
