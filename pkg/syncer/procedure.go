package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/internal/metrics"
)

// DefaultPageSize is the page size the vendor API accepts at most.
const DefaultPageSize = 50

// Runner runs the incremental procedure for one entity.
type Runner interface {
	Run(ctx context.Context, spec *Spec, window Window) (*ResultSet, error)
	Expand(ctx context.Context, parents *ResultSet, child *ChildSpec) (*ResultSet, error)
}

// Procedure pages through a Source and flattens every item with the entity's
// field mapping. Requests are strictly sequential and never retried.
type Procedure struct {
	source   Source
	pageSize int
	logger   *zap.Logger
}

// NewProcedure creates a Procedure. A non-positive pageSize selects DefaultPageSize.
func NewProcedure(source Source, pageSize int, logger *zap.Logger) *Procedure {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Procedure{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Run fetches every page of spec inside window.
//
// A failing page request stops the run: the returned ResultSet holds the
// records of the pages before it, is marked Partial, and the error is a
// *TransportError. Enrichment failures only null the enriched column.
func (p *Procedure) Run(ctx context.Context, spec *Spec, window Window) (*ResultSet, error) {
	rs := &ResultSet{
		Entity:  spec.Name,
		Columns: spec.Columns(),
		Window:  window,
	}

	if spec.Windowed() && window.Empty() {
		rs.Condition = ErrEmptyWindow
		return rs, nil
	}

	offset := 0
	cursor := ""
	for {
		page, err := p.source.ListPage(ctx, PageRequest{
			Spec:   spec,
			Window: window,
			Offset: offset,
			Limit:  p.pageSize,
			Cursor: cursor,
		})
		rs.Requests++
		if err != nil {
			metrics.SourceRequestsTotal.WithLabelValues(spec.Name, "page", "error").Inc()
			terr := &TransportError{
				Entity:     spec.Name,
				Offset:     offset,
				Cursor:     cursor,
				StatusCode: statusOf(err),
				Err:        err,
			}
			rs.Partial = true
			rs.Err = terr
			return rs, terr
		}
		metrics.SourceRequestsTotal.WithLabelValues(spec.Name, "page", "ok").Inc()

		if len(page.Items) == 0 {
			break
		}
		rs.Pages++

		for _, item := range page.Items {
			rec := Extract(spec.Fields, item)
			if spec.Enrichment != nil {
				p.enrich(ctx, spec, rec, rs)
			}
			rs.Records = append(rs.Records, rec)
		}

		p.logger.Debug("page fetched",
			zap.String("entity", spec.Name),
			zap.Int("offset", offset),
			zap.Int("items", len(page.Items)),
		)

		if page.HasMore != nil && !*page.HasMore {
			break
		}
		if page.NextCursor != "" {
			cursor = page.NextCursor
		} else if cursor != "" {
			break
		}
		offset += p.pageSize
	}

	if len(rs.Records) == 0 {
		rs.Condition = ErrNoData
	}
	return rs, nil
}

func (p *Procedure) enrich(ctx context.Context, spec *Spec, rec Record, rs *ResultSet) {
	col := spec.Enrichment.Column
	rec[col] = nil

	href, _ := rec[spec.Enrichment.SourceColumn].(string)
	if href == "" {
		return
	}

	items, err := p.source.Resolve(ctx, href)
	rs.Requests++
	if err == nil && len(items) == 0 {
		err = errors.New("empty item list")
	}
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(spec.Name, "enrich", "error").Inc()
		metrics.EnrichmentFailuresTotal.WithLabelValues(spec.Name).Inc()
		rs.EnrichmentFailures++
		p.logger.Warn("enrichment failed",
			zap.Error(&EnrichmentError{
				Entity:     spec.Name,
				Column:     col,
				Href:       href,
				StatusCode: statusOf(err),
				Err:        err,
			}),
		)
		return
	}
	metrics.SourceRequestsTotal.WithLabelValues(spec.Name, "enrich", "ok").Inc()

	if id := items[0].Get("id"); id.Exists() {
		rec[col] = id.Int()
	}
}

// Expand fetches the child list linked from each parent record and maps
// every child item into its own record. Parent key columns are copied from
// the parent using each key's Path as the parent column name. A parent whose
// list cannot be fetched is skipped and counted as an enrichment failure.
func (p *Procedure) Expand(ctx context.Context, parents *ResultSet, child *ChildSpec) (*ResultSet, error) {
	rs := &ResultSet{
		Entity:  child.Name,
		Columns: child.Columns(),
		Window:  parents.Window,
	}

	for _, parent := range parents.Records {
		if err := ctx.Err(); err != nil {
			rs.Partial = true
			rs.Err = err
			return rs, err
		}

		href, _ := parent[child.LinkColumn].(string)
		if href == "" {
			continue
		}

		items, err := p.source.Resolve(ctx, href)
		rs.Requests++
		if err != nil {
			metrics.SourceRequestsTotal.WithLabelValues(child.Name, "child", "error").Inc()
			metrics.EnrichmentFailuresTotal.WithLabelValues(child.Name).Inc()
			rs.EnrichmentFailures++
			p.logger.Warn("child list fetch failed",
				zap.Error(&EnrichmentError{
					Entity:     child.Name,
					Column:     child.LinkColumn,
					Href:       href,
					StatusCode: statusOf(err),
					Err:        err,
				}),
			)
			continue
		}
		metrics.SourceRequestsTotal.WithLabelValues(child.Name, "child", "ok").Inc()
		rs.Pages++

		for _, item := range items {
			rec := Extract(child.Fields, item)
			for _, key := range child.ParentKeys {
				rec[key.Column] = parent[key.Path]
			}
			rs.Records = append(rs.Records, rec)
		}
	}

	if len(rs.Records) == 0 {
		rs.Condition = ErrNoData
	}
	return rs, nil
}

func statusOf(err error) int {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	return 0
}
