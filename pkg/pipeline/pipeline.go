// Package pipeline drives one sync pass: read the watermark, derive the
// window, run the procedure, hand the result to the sinks and record the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/internal/metrics"
	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/salesstore"
	"github.com/chainsafe/sales-sync/pkg/sink"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// Task is one entity to sync.
type Task struct {
	// Spec is where records are persisted and whose date column is the watermark.
	Spec *entity.Spec
	// Fetch is the mapping handed to the runner. Nil fetches Spec itself.
	Fetch *syncer.Spec
	// Runner executes the procedure against the entity's source.
	Runner syncer.Runner
	// Location is the zone whole days are counted in. Nil means UTC.
	Location *time.Location
	// Lookback is the window length used when no watermark exists.
	Lookback time.Duration
	// Transform reshapes the fetched result before it is written.
	Transform func(*syncer.ResultSet) *syncer.ResultSet
	// WholeDays starts a window without watermark at the beginning of its
	// day, so per-day totals never cover part of a day.
	WholeDays bool
}

func (t *Task) fetchSpec() *syncer.Spec {
	if t.Fetch != nil {
		return t.Fetch
	}
	return &t.Spec.Spec
}

// Report summarizes one task run.
type Report struct {
	Entity   string
	Status   string
	Window   syncer.Window
	Records  int
	Children map[string]int
	Err      error

	Pages              int
	Requests           int
	EnrichmentFailures int
}

// Pipeline runs tasks strictly one after another.
type Pipeline struct {
	sink sink.Sink
	settings
}

// New creates a Pipeline writing into out.
func New(out sink.Sink, opts ...Option) *Pipeline {
	return &Pipeline{
		sink:     out,
		settings: applyOptions(opts),
	}
}

// RunAll runs tasks in order. A failing task does not stop the rest; all
// failures are joined.
func (p *Pipeline) RunAll(ctx context.Context, tasks []*Task, override *syncer.Window) ([]*Report, error) {
	reports := make([]*Report, 0, len(tasks))
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r := p.Run(ctx, t, override)
		reports = append(reports, r)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Entity, r.Err))
		}
	}
	return reports, errors.Join(errs...)
}

// Run syncs a single task. override replaces the derived window of windowed
// entities and is ignored for full dumps.
func (p *Pipeline) Run(ctx context.Context, t *Task, override *syncer.Window) *Report {
	started := p.now()
	fetch := t.fetchSpec()
	report := &Report{Entity: t.Spec.Name}

	defer func() {
		p.finish(ctx, t, report, started)
	}()

	window, err := p.window(ctx, t, fetch, override, started)
	if err != nil {
		report.Status = salesstore.RunFailed
		report.Err = err
		return report
	}
	report.Window = window

	rs, err := t.Runner.Run(ctx, fetch, window)
	if rs == nil {
		report.Status = salesstore.RunFailed
		report.Err = err
		return report
	}
	report.Pages = rs.Pages
	report.Requests = rs.Requests
	report.EnrichmentFailures = rs.EnrichmentFailures
	if err != nil && !rs.Partial {
		report.Status = salesstore.RunFailed
		report.Err = err
		return report
	}
	if rs.Partial {
		report.Status = salesstore.RunPartial
		report.Err = err
		if !p.persistPartial {
			p.logger.Warn("partial result discarded",
				zap.String("entity", t.Spec.Name),
				zap.Int("records", rs.Len()),
				zap.Error(err),
			)
			return report
		}
	}

	parents := rs
	if t.Transform != nil {
		rs = t.Transform(rs)
	}
	report.Records = rs.Len()

	if rs.Len() == 0 {
		if report.Status == "" {
			report.Status = salesstore.RunEmpty
		}
		return report
	}

	if werr := p.sink.Write(ctx, t.Spec, rs); werr != nil {
		report.Status = salesstore.RunFailed
		report.Err = errors.Join(report.Err, werr)
		return report
	}

	if cerr := p.children(ctx, t, parents, report); cerr != nil {
		report.Status = salesstore.RunFailed
		report.Err = errors.Join(report.Err, cerr)
		return report
	}

	if report.Status == "" {
		report.Status = salesstore.RunSucceeded
	}
	return report
}

func (p *Pipeline) window(ctx context.Context, t *Task, fetch *syncer.Spec, override *syncer.Window, now time.Time) (syncer.Window, error) {
	if !fetch.Windowed() {
		return syncer.Window{}, nil
	}
	if override != nil {
		return *override, nil
	}

	var watermark *int64
	if p.watermark != nil {
		wm, err := p.watermark.MaxDate(ctx, t.Spec)
		if err != nil {
			return syncer.Window{}, fmt.Errorf("read watermark: %w", err)
		}
		watermark = wm
	}
	if watermark != nil {
		metrics.Watermark.WithLabelValues(t.Spec.Name).Set(float64(*watermark))
	}

	lookback := t.Lookback
	if lookback <= 0 {
		lookback = syncer.DefaultLookback
	}
	w := syncer.DeriveWindow(watermark, lookback, now, t.Location)
	if watermark == nil && t.WholeDays {
		w = w.AlignStart(t.Location)
	}
	return w, nil
}

func (p *Pipeline) children(ctx context.Context, t *Task, parents *syncer.ResultSet, report *Report) error {
	if len(t.Spec.Children) == 0 || parents.Len() == 0 {
		return nil
	}

	var errs []error
	for _, child := range t.Spec.Children {
		crs, err := t.Runner.Expand(ctx, parents, child)
		if err != nil && (crs == nil || !p.persistPartial) {
			errs = append(errs, fmt.Errorf("expand %s: %w", child.Name, err))
			continue
		}
		if report.Children == nil {
			report.Children = make(map[string]int)
		}
		report.Children[child.Name] = crs.Len()
		report.Requests += crs.Requests
		report.EnrichmentFailures += crs.EnrichmentFailures
		if crs.Len() == 0 {
			continue
		}
		if werr := p.sink.Write(ctx, entity.ChildTable(child), crs); werr != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", child.Name, werr))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) finish(ctx context.Context, t *Task, report *Report, started time.Time) {
	finished := p.now()
	name := t.Spec.Name

	metrics.SyncRunsTotal.WithLabelValues(name, report.Status).Inc()
	metrics.SyncDuration.WithLabelValues(name).Observe(finished.Sub(started).Seconds())
	if report.Status == salesstore.RunSucceeded || report.Status == salesstore.RunEmpty {
		metrics.LastSuccess.WithLabelValues(name).Set(float64(finished.Unix()))
	}

	if p.runs == nil {
		return
	}
	run := &salesstore.Run{
		ID:         uuid.New(),
		Entity:     name,
		Status:     report.Status,
		Window:     report.Window,
		Records:    report.Records,
		StartedAt:  started,
		FinishedAt: finished,

		Pages:              report.Pages,
		Requests:           report.Requests,
		EnrichmentFailures: report.EnrichmentFailures,
	}
	if report.Err != nil {
		run.Error = report.Err.Error()
	}
	// The run log is written even when ctx was cancelled mid-run.
	if err := p.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		metrics.ErrorsTotal.WithLabelValues("run_log", "write").Inc()
		p.logger.Error("failed to record run", zap.String("entity", name), zap.Error(err))
	}
}
