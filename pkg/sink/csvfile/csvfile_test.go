package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

func result(start, end int64, rows ...syncer.Record) *syncer.ResultSet {
	return &syncer.ResultSet{
		Entity:  entity.Payments,
		Columns: []string{"payment_id", "payment_date", "amount", "state"},
		Records: rows,
		Window:  syncer.NewWindow(time.Unix(start, 0), time.Unix(end, 0)),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(b)
}

func TestSink_WriteAndAppendGlobal(t *testing.T) {
	dir := t.TempDir()
	spec, _ := entity.Default().Get(entity.Payments)
	s := New(dir, true, zap.NewNop())
	ctx := context.Background()

	first := result(100, 200, syncer.Record{
		"payment_id": int64(1), "payment_date": int64(150), "amount": decimal.RequireFromString("10.50"), "state": nil,
	})
	second := result(200, 300, syncer.Record{
		"payment_id": int64(2), "payment_date": int64(250), "amount": decimal.RequireFromString("3"), "state": int64(0),
	})

	if err := s.Write(ctx, spec, first); err != nil {
		t.Fatalf("first Write() failed: %v", err)
	}
	if err := s.Write(ctx, spec, second); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	runFile := readFile(t, filepath.Join(dir, "pagos", "pagos_100_to_200.csv"))
	if want := "payment_id,payment_date,amount,state\n1,150,10.5,\n"; runFile != want {
		t.Fatalf("unexpected run file %q", runFile)
	}

	global := readFile(t, filepath.Join(dir, "pagos", "pagos.csv"))
	want := "payment_id,payment_date,amount,state\n1,150,10.5,\n2,250,3,0\n"
	if global != want {
		t.Fatalf("unexpected global file %q", global)
	}

	wm, err := s.MaxDate(ctx, spec)
	if err != nil {
		t.Fatalf("MaxDate() failed: %v", err)
	}
	if wm == nil || *wm != 250 {
		t.Fatalf("expected watermark 250, got %v", wm)
	}
}

func TestSink_MaxDateWithoutFile(t *testing.T) {
	spec, _ := entity.Default().Get(entity.Documents)
	wm, err := New(t.TempDir(), true, zap.NewNop()).MaxDate(context.Background(), spec)
	if err != nil {
		t.Fatalf("MaxDate() failed: %v", err)
	}
	if wm != nil {
		t.Fatalf("expected nil watermark, got %d", *wm)
	}
}

func TestSink_AppendRejectsHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	spec, _ := entity.Default().Get(entity.Payments)
	if err := os.MkdirAll(filepath.Join(dir, "pagos"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pagos", "pagos.csv"), []byte("id,date\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New(dir, true, zap.NewNop()).Write(context.Background(), spec, result(1, 2))
	if err == nil {
		t.Fatal("expected header mismatch error")
	}
}

func TestSink_UnwindowedDump(t *testing.T) {
	dir := t.TempDir()
	spec, _ := entity.Default().Get(entity.Clients)
	rs := &syncer.ResultSet{
		Entity:  entity.Clients,
		Columns: []string{"client_id", "first_name"},
		Records: []syncer.Record{{"client_id": int64(3), "first_name": "Ana, María"}},
	}

	if err := New(dir, true, zap.NewNop()).Write(context.Background(), spec, rs); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got := readFile(t, filepath.Join(dir, "clients", "clients.csv"))
	if want := "client_id,first_name\n3,\"Ana, María\"\n"; got != want {
		t.Fatalf("unexpected dump %q", got)
	}
}
