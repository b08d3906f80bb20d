package syncer

import (
	"errors"
	"sort"
)

var (
	// ErrEmptyWindow is reported when the fetch window holds no instant.
	// No request is issued for such a window.
	ErrEmptyWindow = errors.New("empty fetch window")
	// ErrNoData is reported when the source returned zero items for a window.
	ErrNoData = errors.New("no records in window")
)

// IsCondition reports whether err is an informational condition rather than
// a failure of the run.
func IsCondition(err error) bool {
	return errors.Is(err, ErrEmptyWindow) || errors.Is(err, ErrNoData)
}

// Record is one flattened output row keyed by column name.
type Record map[string]any

// Values returns the record values in the order of cols.
func (r Record) Values(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// ResultSet is the outcome of one procedure run.
type ResultSet struct {
	Entity  string
	Columns []string
	Records []Record
	Window  Window

	Pages    int
	Requests int

	// Partial is set when a primary request failed after zero or more pages
	// had already been collected. Err then holds the *TransportError.
	Partial bool
	Err     error

	// Condition is ErrEmptyWindow or ErrNoData when the run finished without
	// records. It is never a failure.
	Condition error

	EnrichmentFailures int
}

// Len returns the number of records.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// MaxInt returns the largest integer value stored in col, or nil when no
// record carries one.
func (rs *ResultSet) MaxInt(col string) *int64 {
	var maxV *int64
	for _, r := range rs.Records {
		v, ok := r[col].(int64)
		if !ok {
			continue
		}
		if maxV == nil || v > *maxV {
			vv := v
			maxV = &vv
		}
	}
	return maxV
}

// SortBy orders records ascending on an integer column; nil values sort first.
func (rs *ResultSet) SortBy(col string) {
	sort.SliceStable(rs.Records, func(i, j int) bool {
		a, aok := rs.Records[i][col].(int64)
		b, bok := rs.Records[j][col].(int64)
		if !aok || !bok {
			return !aok && bok
		}
		return a < b
	})
}
