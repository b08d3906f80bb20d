package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// logRunner wraps Runner with logging of every run
type logRunner struct {
	runner Runner
	logger *zap.Logger
}

// NewLog creates a logging decorator for a Runner.
func NewLog(runner Runner, logger *zap.Logger) Runner {
	return &logRunner{
		runner: runner,
		logger: logger,
	}
}

// Run wraps the runner method with logging
func (l *logRunner) Run(ctx context.Context, spec *Spec, window Window) (rs *ResultSet, err error) {
	start := time.Now()

	l.logger.Info("Run started",
		zap.String("entity", spec.Name),
		zap.Stringer("window", window),
	)

	defer func() {
		duration := time.Since(start)

		switch {
		case err != nil:
			fields := []zap.Field{
				zap.String("entity", spec.Name),
				zap.Duration("duration", duration),
				zap.Error(err),
			}
			if rs != nil {
				fields = append(fields,
					zap.Int("records", rs.Len()),
					zap.Int("requests", rs.Requests),
					zap.Bool("partial", rs.Partial),
				)
			}
			l.logger.Error("Run failed", fields...)
		case rs.Condition != nil:
			l.logger.Info("Run completed without records",
				zap.String("entity", spec.Name),
				zap.String("condition", rs.Condition.Error()),
				zap.Int("requests", rs.Requests),
				zap.Duration("duration", duration),
			)
		default:
			l.logger.Info("Run completed",
				zap.String("entity", spec.Name),
				zap.Int("records", rs.Len()),
				zap.Int("pages", rs.Pages),
				zap.Int("requests", rs.Requests),
				zap.Int("enrichment_failures", rs.EnrichmentFailures),
				zap.Duration("duration", duration),
			)
		}
	}()

	return l.runner.Run(ctx, spec, window)
}

// Expand wraps the runner method with logging
func (l *logRunner) Expand(ctx context.Context, parents *ResultSet, child *ChildSpec) (rs *ResultSet, err error) {
	start := time.Now()

	l.logger.Info("Expand started",
		zap.String("entity", child.Name),
		zap.Int("parents", parents.Len()),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			l.logger.Error("Expand failed",
				zap.String("entity", child.Name),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			return
		}
		l.logger.Info("Expand completed",
			zap.String("entity", child.Name),
			zap.Int("records", rs.Len()),
			zap.Int("requests", rs.Requests),
			zap.Int("failures", rs.EnrichmentFailures),
			zap.Duration("duration", duration),
		)
	}()

	return l.runner.Expand(ctx, parents, child)
}
