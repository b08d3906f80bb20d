package sink

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// MockSink is a mock implementation of Sink
type MockSink struct {
	NameValue string
	WriteFunc func(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error
	calls     int
}

func (m *MockSink) Name() string { return m.NameValue }

func (m *MockSink) Write(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	m.calls++
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, spec, rs)
	}
	return nil
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	failing := &MockSink{
		NameValue: "failing",
		WriteFunc: func(context.Context, *entity.Spec, *syncer.ResultSet) error { return errors.New("disk full") },
	}
	ok := &MockSink{NameValue: "ok"}
	spec, _ := entity.Default().Get(entity.Clients)

	err := NewMulti(zap.NewNop(), failing, ok).Write(context.Background(), spec, &syncer.ResultSet{Entity: entity.Clients})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if ok.calls != 1 {
		t.Fatalf("expected second sink called once, got %d", ok.calls)
	}
}

func TestFileName(t *testing.T) {
	clients, _ := entity.Default().Get(entity.Clients)
	if got := FileName(clients, syncer.Window{}); got != "clients.csv" {
		t.Fatalf("unexpected dump name %s", got)
	}
	payments, _ := entity.Default().Get(entity.Payments)
	if got := FileName(payments, syncer.Window{}); got != "pagos_lookup.csv" {
		t.Fatalf("unexpected lookup name %s", got)
	}
	w := syncer.NewWindow(time.Unix(10, 0), time.Unix(20, 0))
	if got := FileName(payments, w); got != "pagos_10_to_20.csv" {
		t.Fatalf("unexpected window name %s", got)
	}
}

func TestEncodeCSV(t *testing.T) {
	rs := &syncer.ResultSet{
		Columns: []string{"id", "amount", "active", "note"},
		Records: []syncer.Record{
			{"id": int64(1), "amount": decimal.RequireFromString("1190.00"), "active": true, "note": "a\"b"},
			{"id": int64(2), "amount": nil, "active": false},
		},
	}
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, rs, true); err != nil {
		t.Fatalf("EncodeCSV() failed: %v", err)
	}
	want := "id,amount,active,note\n1,1190,true,\"a\"\"b\"\n2,,false,\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}
