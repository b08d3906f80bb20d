// Package csvfile writes result sets as CSV files on local disk.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/sink"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// Sink writes <dir>/<table>/<table>_<start>_to_<end>.csv per run and, when
// appendGlobal is set, appends the same rows to <dir>/<table>/<table>.csv.
type Sink struct {
	dir          string
	appendGlobal bool
	logger       *zap.Logger
}

var (
	_ sink.Sink      = (*Sink)(nil)
	_ sink.Watermark = (*Sink)(nil)
)

// New creates a CSV file sink rooted at dir.
func New(dir string, appendGlobal bool, logger *zap.Logger) *Sink {
	return &Sink{dir: dir, appendGlobal: appendGlobal, logger: logger}
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return "csv" }

// Write implements sink.Sink.
func (s *Sink) Write(_ context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	tableDir := filepath.Join(s.dir, spec.Table)
	if err := os.MkdirAll(tableDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(tableDir, sink.FileName(spec, rs.Window))
	if err := writeFile(path, rs); err != nil {
		return err
	}
	s.logger.Debug("csv written", zap.String("path", path), zap.Int("records", rs.Len()))

	if !s.appendGlobal || rs.Window.IsZero() {
		return nil
	}
	return s.appendTo(s.globalPath(spec), rs)
}

// MaxDate implements sink.Watermark by scanning the global CSV of spec.
func (s *Sink) MaxDate(_ context.Context, spec *entity.Spec) (*int64, error) {
	if spec.DateColumn == "" {
		return nil, nil
	}

	f, err := os.Open(s.globalPath(spec))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open global csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := slices.Index(header, spec.DateColumn)
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found in %s", spec.DateColumn, f.Name())
	}

	var maxV *int64
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		v, err := strconv.ParseInt(row[idx], 10, 64)
		if err != nil {
			continue
		}
		if maxV == nil || v > *maxV {
			maxV = &v
		}
	}
	return maxV, nil
}

func (s *Sink) globalPath(spec *entity.Spec) string {
	return filepath.Join(s.dir, spec.Table, spec.Table+".csv")
}

func writeFile(path string, rs *syncer.ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sink.EncodeCSV(f, rs, true); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// appendTo appends rows to path, writing the header only when the file is
// new. An existing file must carry the same header.
func (s *Sink) appendTo(path string, rs *syncer.ResultSet) error {
	header, err := readHeader(path)
	if err != nil {
		return err
	}
	if header != nil && !slices.Equal(header, rs.Columns) {
		return fmt.Errorf("%s: header %v does not match columns %v", path, header, rs.Columns)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := sink.EncodeCSV(f, rs, header == nil); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	s.logger.Debug("csv appended", zap.String("path", path), zap.Int("records", rs.Len()))
	return f.Close()
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return header, nil
}
