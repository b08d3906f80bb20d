package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/salesstore"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// MockRunner is a mock implementation of syncer.Runner
type MockRunner struct {
	RunFunc    func(ctx context.Context, spec *syncer.Spec, window syncer.Window) (*syncer.ResultSet, error)
	ExpandFunc func(ctx context.Context, parents *syncer.ResultSet, child *syncer.ChildSpec) (*syncer.ResultSet, error)
	windows    []syncer.Window
}

func (m *MockRunner) Run(ctx context.Context, spec *syncer.Spec, window syncer.Window) (*syncer.ResultSet, error) {
	m.windows = append(m.windows, window)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, spec, window)
	}
	return &syncer.ResultSet{Entity: spec.Name, Window: window, Condition: syncer.ErrNoData}, nil
}

func (m *MockRunner) Expand(ctx context.Context, parents *syncer.ResultSet, child *syncer.ChildSpec) (*syncer.ResultSet, error) {
	if m.ExpandFunc != nil {
		return m.ExpandFunc(ctx, parents, child)
	}
	return &syncer.ResultSet{Entity: child.Name, Condition: syncer.ErrNoData}, nil
}

type write struct {
	table string
	rs    *syncer.ResultSet
}

// MockSink records every write
type MockSink struct {
	WriteErr error
	writes   []write
}

func (m *MockSink) Name() string { return "mock" }

func (m *MockSink) Write(_ context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	m.writes = append(m.writes, write{table: spec.Table, rs: rs})
	return m.WriteErr
}

// MockWatermark is a mock implementation of sink.Watermark
type MockWatermark struct {
	MaxDateFunc func(ctx context.Context, spec *entity.Spec) (*int64, error)
}

func (m *MockWatermark) MaxDate(ctx context.Context, spec *entity.Spec) (*int64, error) {
	if m.MaxDateFunc != nil {
		return m.MaxDateFunc(ctx, spec)
	}
	return nil, nil
}

// MockRunStore is a mock implementation of salesstore.RunStore
type MockRunStore struct {
	runs []*salesstore.Run
}

func (m *MockRunStore) RecordRun(_ context.Context, run *salesstore.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *MockRunStore) ListRuns(context.Context, string, int) ([]*salesstore.Run, error) {
	return m.runs, nil
}

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func spec(t *testing.T, name string) *entity.Spec {
	t.Helper()
	s, err := entity.Default().Get(name)
	require.NoError(t, err)
	return s
}

func records(window syncer.Window, n int) func(context.Context, *syncer.Spec, syncer.Window) (*syncer.ResultSet, error) {
	return func(_ context.Context, spec *syncer.Spec, w syncer.Window) (*syncer.ResultSet, error) {
		rs := &syncer.ResultSet{Entity: spec.Name, Columns: spec.Columns(), Window: w, Pages: 1, Requests: 2}
		for i := 0; i < n; i++ {
			rs.Records = append(rs.Records, syncer.Record{"payment_id": int64(i + 1)})
		}
		return rs, nil
	}
}

func newPipeline(out *MockSink, runs *MockRunStore, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return now }), WithRunStore(runs)}, opts...)
	return New(out, opts...)
}

func TestPipeline_RunDerivesWindowFromWatermark(t *testing.T) {
	wm := time.Date(2025, 5, 28, 15, 0, 0, 0, time.UTC).Unix()
	out, runs := &MockSink{}, &MockRunStore{}
	runner := &MockRunner{RunFunc: records(syncer.Window{}, 3)}

	p := newPipeline(out, runs, WithWatermark(&MockWatermark{
		MaxDateFunc: func(_ context.Context, s *entity.Spec) (*int64, error) {
			require.Equal(t, "pagos", s.Table)
			return &wm, nil
		},
	}))

	report := p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, nil)

	require.NoError(t, report.Err)
	require.Equal(t, salesstore.RunSucceeded, report.Status)
	want := syncer.NewWindow(time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Equal(t, []syncer.Window{want}, runner.windows)
	require.Len(t, out.writes, 1)
	require.Equal(t, "pagos", out.writes[0].table)
	require.Equal(t, 3, out.writes[0].rs.Len())

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	require.Equal(t, entity.Payments, run.Entity)
	require.Equal(t, salesstore.RunSucceeded, run.Status)
	require.Equal(t, want, run.Window)
	require.Equal(t, 3, run.Records)
	require.Equal(t, 2, run.Requests)
	require.Empty(t, run.Error)
}

func TestPipeline_RunWithoutWatermarkUsesLookback(t *testing.T) {
	runner := &MockRunner{RunFunc: records(syncer.Window{}, 1)}
	p := newPipeline(&MockSink{}, &MockRunStore{})

	p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner, Lookback: 7 * 24 * time.Hour}, nil)

	require.Len(t, runner.windows, 1)
	require.Equal(t, time.Date(2025, 5, 25, 9, 30, 0, 0, time.UTC), runner.windows[0].Start)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), runner.windows[0].End)
}

func TestPipeline_WholeDaysAlignsFirstWindow(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	at := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	runner := &MockRunner{}
	p := New(&MockSink{}, WithClock(func() time.Time { return at }))
	p.Run(context.Background(), &Task{
		Spec:      spec(t, entity.Payments),
		Runner:    runner,
		Location:  santiago,
		Lookback:  90 * 24 * time.Hour,
		WholeDays: true,
	}, nil)

	require.Len(t, runner.windows, 1)
	w := runner.windows[0]
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, santiago).Unix(), w.StartUnix())
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, santiago).Unix(), w.EndUnix())

	// Orders from the early hours of the first local day are inside the window.
	require.True(t, w.Contains(time.Date(2025, 3, 3, 1, 0, 0, 0, santiago).Unix()))
}

func TestPipeline_WholeDaysKeepsWatermarkWindow(t *testing.T) {
	wm := time.Date(2025, 5, 28, 15, 0, 0, 0, time.UTC).Unix()
	runner := &MockRunner{}
	p := newPipeline(&MockSink{}, &MockRunStore{}, WithWatermark(&MockWatermark{
		MaxDateFunc: func(context.Context, *entity.Spec) (*int64, error) { return &wm, nil },
	}))

	p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner, WholeDays: true}, nil)

	require.Equal(t, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC), runner.windows[0].Start)
}

func TestPipeline_PartialResultIsDiscardedByDefault(t *testing.T) {
	terr := &syncer.TransportError{Entity: entity.Payments, Offset: 50, StatusCode: 502, Err: errors.New("bad gateway")}
	runner := &MockRunner{RunFunc: func(_ context.Context, s *syncer.Spec, w syncer.Window) (*syncer.ResultSet, error) {
		return &syncer.ResultSet{
			Entity:  s.Name,
			Window:  w,
			Records: []syncer.Record{{"payment_id": int64(1)}},
			Partial: true,
			Err:     terr,
		}, terr
	}}

	out, runs := &MockSink{}, &MockRunStore{}
	report := newPipeline(out, runs).Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, nil)

	require.Equal(t, salesstore.RunPartial, report.Status)
	var got *syncer.TransportError
	require.ErrorAs(t, report.Err, &got)
	require.Empty(t, out.writes)
	require.Equal(t, salesstore.RunPartial, runs.runs[0].Status)
	require.Contains(t, runs.runs[0].Error, "bad gateway")

	out = &MockSink{}
	report = newPipeline(out, &MockRunStore{}, WithPersistPartial(true)).
		Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, nil)
	require.Equal(t, salesstore.RunPartial, report.Status)
	require.Len(t, out.writes, 1)
}

func TestPipeline_EmptyWindowWritesNothing(t *testing.T) {
	wm := now.Add(-time.Hour).Unix()
	runner := &MockRunner{RunFunc: func(_ context.Context, s *syncer.Spec, w syncer.Window) (*syncer.ResultSet, error) {
		require.True(t, w.Empty())
		return &syncer.ResultSet{Entity: s.Name, Window: w, Condition: syncer.ErrEmptyWindow}, nil
	}}
	out, runs := &MockSink{}, &MockRunStore{}
	p := newPipeline(out, runs, WithWatermark(&MockWatermark{
		MaxDateFunc: func(context.Context, *entity.Spec) (*int64, error) { return &wm, nil },
	}))

	report := p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, nil)

	require.NoError(t, report.Err)
	require.Equal(t, salesstore.RunEmpty, report.Status)
	require.Empty(t, out.writes)
	require.Equal(t, salesstore.RunEmpty, runs.runs[0].Status)
}

func TestPipeline_WatermarkErrorFailsBeforeFetching(t *testing.T) {
	boom := errors.New("connection refused")
	runner := &MockRunner{}
	out, runs := &MockSink{}, &MockRunStore{}
	p := newPipeline(out, runs, WithWatermark(&MockWatermark{
		MaxDateFunc: func(context.Context, *entity.Spec) (*int64, error) { return nil, boom },
	}))

	report := p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, nil)

	require.ErrorIs(t, report.Err, boom)
	require.Equal(t, salesstore.RunFailed, report.Status)
	require.Empty(t, runner.windows)
	require.Len(t, runs.runs, 1)
}

func TestPipeline_OverrideAndUnwindowed(t *testing.T) {
	override := syncer.NewWindow(time.Unix(1700000000, 0), time.Unix(1700086400, 0))
	watermark := &MockWatermark{MaxDateFunc: func(context.Context, *entity.Spec) (*int64, error) {
		t.Fatal("watermark must not be read")
		return nil, nil
	}}
	p := newPipeline(&MockSink{}, &MockRunStore{}, WithWatermark(watermark))

	runner := &MockRunner{}
	p.Run(context.Background(), &Task{Spec: spec(t, entity.Payments), Runner: runner}, &override)
	p.Run(context.Background(), &Task{Spec: spec(t, entity.Clients), Runner: runner}, &override)

	require.Equal(t, []syncer.Window{override, {}}, runner.windows)
}

func TestPipeline_ChildrenAreWrittenToTheirTable(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(_ context.Context, s *syncer.Spec, w syncer.Window) (*syncer.ResultSet, error) {
			return &syncer.ResultSet{
				Entity:  s.Name,
				Window:  w,
				Records: []syncer.Record{{"document_id": int64(1), "details_url": "https://x/1"}},
			}, nil
		},
		ExpandFunc: func(_ context.Context, parents *syncer.ResultSet, c *syncer.ChildSpec) (*syncer.ResultSet, error) {
			require.Equal(t, 1, parents.Len())
			return &syncer.ResultSet{
				Entity:   c.Name,
				Records:  []syncer.Record{{"document_id": int64(1), "line_number": int64(1)}},
				Requests: 1,
			}, nil
		},
	}
	out := &MockSink{}
	report := newPipeline(out, &MockRunStore{}).Run(context.Background(), &Task{Spec: spec(t, entity.Documents), Runner: runner}, nil)

	require.NoError(t, report.Err)
	require.Len(t, out.writes, 2)
	require.Equal(t, "documentos", out.writes[0].table)
	require.Equal(t, entity.DocumentDetails, out.writes[1].table)
	require.Equal(t, map[string]int{entity.DocumentDetails: 1}, report.Children)
}

func TestPipeline_TransformReshapesResult(t *testing.T) {
	runner := &MockRunner{RunFunc: records(syncer.Window{}, 4)}
	out := &MockSink{}
	task := &Task{
		Spec:   spec(t, entity.Payments),
		Runner: runner,
		Transform: func(rs *syncer.ResultSet) *syncer.ResultSet {
			return &syncer.ResultSet{Entity: "summary", Window: rs.Window, Records: rs.Records[:1]}
		},
	}

	report := newPipeline(out, &MockRunStore{}).Run(context.Background(), task, nil)

	require.Equal(t, 1, report.Records)
	require.Equal(t, "summary", out.writes[0].rs.Entity)
}

func TestPipeline_RunAllContinuesAfterFailure(t *testing.T) {
	failing := &MockRunner{RunFunc: func(context.Context, *syncer.Spec, syncer.Window) (*syncer.ResultSet, error) {
		return nil, errors.New("dial tcp: refused")
	}}
	ok := &MockRunner{RunFunc: records(syncer.Window{}, 2)}
	out, runs := &MockSink{}, &MockRunStore{}

	reports, err := newPipeline(out, runs).RunAll(context.Background(), []*Task{
		{Spec: spec(t, entity.Payments), Runner: failing},
		{Spec: spec(t, entity.Clients), Runner: ok},
	}, nil)

	require.Error(t, err)
	require.Contains(t, err.Error(), entity.Payments)
	require.Len(t, reports, 2)
	require.Equal(t, salesstore.RunFailed, reports[0].Status)
	require.Equal(t, salesstore.RunSucceeded, reports[1].Status)
	require.Len(t, out.writes, 1)
	require.Len(t, runs.runs, 2)
}

func TestPipeline_SinkFailureFailsRun(t *testing.T) {
	runner := &MockRunner{RunFunc: records(syncer.Window{}, 1)}
	out := &MockSink{WriteErr: errors.New("disk full")}

	report := newPipeline(out, &MockRunStore{}).Run(context.Background(), &Task{Spec: spec(t, entity.Clients), Runner: runner}, nil)

	require.Equal(t, salesstore.RunFailed, report.Status)
	require.ErrorContains(t, report.Err, "disk full")
}
