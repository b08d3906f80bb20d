// Package syncjob implements app.Runner for the sales sync process.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apphttp "github.com/chainsafe/sales-sync/pkg/app/http"
	"github.com/chainsafe/sales-sync/pkg/config"
	"github.com/chainsafe/sales-sync/pkg/pipeline"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// RunOptions are the command line overrides of a process.
type RunOptions struct {
	// Once runs a single pass and exits instead of serving the schedule.
	Once bool
	// Entities restricts the pass to these entity names.
	Entities []string
	// Window replaces the derived window of every windowed entity.
	Window *syncer.Window
	// Params are extra vendor query parameters, such as number=123. A pass
	// with params is a lookup: entities are fetched without their date range
	// unless Window is set, and no watermark is read.
	Params map[string]string
}

// Server holds the configuration of the sync process.
type Server struct {
	cfg  *config.Config
	opts RunOptions
}

// NewServer initializes a new sync Server.
func NewServer(cfg *config.Config, opts RunOptions) *Server {
	return &Server{cfg: cfg, opts: opts}
}

// Run builds the sinks and sources, then either runs one pass or serves the
// schedule together with the health and metrics endpoints until an OS
// shutdown signal is received.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	d, err := s.build(ctx, logger)
	if err != nil {
		return fmt.Errorf("initialize sync: %w", err)
	}
	defer d.close()

	names := make([]string, len(d.tasks))
	for i, t := range d.tasks {
		names[i] = t.Spec.Name
	}
	logger.Info("Starting sales sync",
		zap.Strings("entities", names),
		zap.Bool("once", s.opts.Once),
		zap.String("watermark_source", cfg.Sync.WatermarkSource),
	)

	if s.opts.Once {
		return s.pass(ctx, d, logger)
	}

	sched := newScheduler(ctx, logger)
	id, err := sched.add(cfg.Sync.Schedule, func(ctx context.Context) {
		// Failures are already logged and recorded per entity.
		_ = s.pass(ctx, d, logger)
	})
	if err != nil {
		return fmt.Errorf("invalid sync.schedule %q: %w", cfg.Sync.Schedule, err)
	}
	sched.start()
	logger.Info("Sync scheduled",
		zap.String("schedule", cfg.Sync.Schedule),
		zap.String("next_run", sched.next(id)),
	)

	router := s.newRouter(d, logger)
	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Let a running pass finish before the database handle closes.
	sched.stop()
	return err
}

// pass runs every task once, bounded by sync.run_timeout.
func (s *Server) pass(ctx context.Context, d *deps, logger *zap.Logger) error {
	if timeout := s.cfg.Sync.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reports, err := d.pipeline.RunAll(ctx, d.tasks, s.opts.Window)
	for _, r := range reports {
		logReport(logger, r)
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		logger.Error("Sync pass timed out", zap.Duration("timeout", s.cfg.Sync.RunTimeout))
	}
	return err
}

func logReport(logger *zap.Logger, r *pipeline.Report) {
	fields := []zap.Field{
		zap.String("entity", r.Entity),
		zap.String("status", r.Status),
		zap.Int("records", r.Records),
		zap.Int("requests", r.Requests),
	}
	if !r.Window.IsZero() {
		fields = append(fields, zap.Stringer("window", r.Window))
	}
	for child, n := range r.Children {
		fields = append(fields, zap.Int(child, n))
	}
	if r.Err != nil {
		logger.Error("Entity sync failed", append(fields, zap.Error(r.Err))...)
		return
	}
	logger.Info("Entity synced", fields...)
}
