package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/salesstore"
	"github.com/chainsafe/sales-sync/pkg/sink"
)

// Option configures a Pipeline.
type Option func(*settings)

type settings struct {
	watermark      sink.Watermark
	runs           salesstore.RunStore
	persistPartial bool
	now            func() time.Time
	logger         *zap.Logger
}

// WithWatermark sets where the last persisted date is read from. Without
// it every windowed run starts from the lookback.
func WithWatermark(w sink.Watermark) Option {
	return func(s *settings) { s.watermark = w }
}

// WithRunStore records every task run.
func WithRunStore(r salesstore.RunStore) Option {
	return func(s *settings) { s.runs = r }
}

// WithPersistPartial makes partial results reach the sinks.
func WithPersistPartial(enabled bool) Option {
	return func(s *settings) { s.persistPartial = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func applyOptions(opts []Option) settings {
	s := settings{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
