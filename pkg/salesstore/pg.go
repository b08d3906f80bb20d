package salesstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// insertBatchSize bounds the number of rows sent in one INSERT statement.
const insertBatchSize = 500

// undefinedTable is the SQLSTATE postgres reports for a missing relation.
const undefinedTable = "42P01"

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the sales store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) InsertRecords(ctx context.Context, table, key string, columns []string, rows []syncer.Record) (int, error) {
	values := toValues(key, columns, rows)
	if len(values) == 0 {
		return 0, nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for start := 0; start < len(values); start += insertBatchSize {
			end := min(start+insertBatchSize, len(values))
			batch := values[start:end]

			q := tx.NewInsert().
				Model(&batch).
				TableExpr("?", bun.Ident(table))
			q = onConflict(q, key, columns)

			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert rows %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert records into %s: %w", table, err)
	}

	return len(values), nil
}

func onConflict(q *bun.InsertQuery, key string, columns []string) *bun.InsertQuery {
	if key == "" {
		return q.On("CONFLICT DO NOTHING")
	}

	q = q.On("CONFLICT (?) DO UPDATE", bun.Ident(key))
	updated := 0
	for _, col := range columns {
		if col == key {
			continue
		}
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
		updated++
	}
	if updated == 0 {
		// A key-only table has nothing to update.
		q = q.Set("? = EXCLUDED.?", bun.Ident(key), bun.Ident(key))
	}
	return q
}

// toValues projects rows onto columns so every map carries the same keys.
func toValues(key string, columns []string, rows []syncer.Record) []map[string]interface{} {
	values := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if key != "" && row[key] == nil {
			continue
		}
		v := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			v[col] = row[col]
		}
		values = append(values, v)
	}
	return values
}

func (s *pgStore) MaxInt(ctx context.Context, table, column string) (*int64, error) {
	var maxVal sql.NullInt64
	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("MAX(?)", bun.Ident(column)).
		Scan(ctx, &maxVal)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == undefinedTable {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		return nil, fmt.Errorf("failed to read max %s from %s: %w", column, table, err)
	}
	if !maxVal.Valid {
		return nil, nil
	}
	return &maxVal.Int64, nil
}

func (s *pgStore) RecordRun(ctx context.Context, run *Run) error {
	dao := toRunDao(run)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

func (s *pgStore) ListRuns(ctx context.Context, entity string, limit int) ([]*Run, error) {
	var daos []SyncRunDao
	query := s.db.NewSelect().
		Model(&daos).
		Order("started_at DESC")
	if entity != "" {
		query = query.Where("entity = ?", entity)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*Run, len(daos))
	for i := range daos {
		runs[i] = toRun(&daos[i])
	}
	return runs, nil
}
