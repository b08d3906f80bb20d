package syncjob

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// scheduler runs jobs on a cron spec with seconds precision. A job that is
// still running when its next tick arrives is skipped, so passes never overlap.
type scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func newScheduler(baseCtx context.Context, logger *zap.Logger) *scheduler {
	cl := cronLogger{s: logger.Sugar()}
	return &scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (s *scheduler) add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { job(s.baseCtx) })
}

func (s *scheduler) start() {
	s.logger.Info("Scheduler started")
	s.cron.Start()
}

// stop waits for a running job to return.
func (s *scheduler) stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *scheduler) next(id cron.EntryID) string {
	e := s.cron.Entry(id)
	if e.Next.IsZero() {
		return ""
	}
	return e.Next.UTC().Format("2006-01-02T15:04:05Z")
}
