package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func documentSpec() *Spec {
	return &Spec{
		Name:      "documents",
		Endpoint:  "documents",
		DateParam: "emissiondaterange",
		Fields: []Field{
			{Column: "id", Path: "id", Kind: KindInt},
			{Column: "emission_date", Path: "emissionDate", Kind: KindInt},
			{Column: "total_amount", Path: "totalAmount", Kind: KindDecimal},
			{Column: "client_id", Path: "client.id", Kind: KindInt},
			{Column: "seller_href", Path: "sellers.href", Kind: KindString},
		},
		Enrichment: &Enrichment{Column: "seller_id", SourceColumn: "seller_href"},
	}
}

func testWindow() Window {
	return NewWindow(
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	)
}

func doc(id int) map[string]any {
	return map[string]any{
		"id":           id,
		"emissionDate": 1746057600 + id,
		"totalAmount":  "1190.50",
		"client":       map[string]any{"id": 7},
		"sellers":      map[string]any{"href": fmt.Sprintf("https://api.example/v1/documents/%d/sellers.json", id)},
	}
}

func TestProcedure_EmptyWindowIssuesNoRequests(t *testing.T) {
	src := &MockSource{}
	p := NewProcedure(src, 50, zap.NewNop())

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	wm := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC).Unix()
	rs, err := p.Run(context.Background(), documentSpec(), DeriveWindow(&wm, DefaultLookback, now, nil))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !errors.Is(rs.Condition, ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow condition, got %v", rs.Condition)
	}
	if rs.Len() != 0 || rs.Requests != 0 || len(src.PageCalls()) != 0 {
		t.Fatalf("expected no records and no requests, got %d records, %d requests", rs.Len(), rs.Requests)
	}
}

func TestProcedure_FullPageThenEmptyStopsAfterTwoCalls(t *testing.T) {
	spec := documentSpec()
	spec.Enrichment = nil
	src := pagedSource(2, [][]gjson.Result{items(doc(1), doc(2))}, -1, nil)
	p := NewProcedure(src, 2, zap.NewNop())

	rs, err := p.Run(context.Background(), spec, testWindow())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	calls := src.PageCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(calls))
	}
	if calls[0].Offset != 0 || calls[1].Offset != 2 {
		t.Fatalf("expected offsets 0 and 2, got %d and %d", calls[0].Offset, calls[1].Offset)
	}
	if calls[0].Limit != 2 {
		t.Fatalf("expected limit 2, got %d", calls[0].Limit)
	}
	if rs.Len() != 2 || rs.Pages != 1 {
		t.Fatalf("expected 2 records on 1 page, got %d on %d", rs.Len(), rs.Pages)
	}
	if rs.Condition != nil {
		t.Fatalf("expected no condition, got %v", rs.Condition)
	}
}

func TestProcedure_PrimaryFailureKeepsEarlierPages(t *testing.T) {
	spec := documentSpec()
	spec.Enrichment = nil
	failure := &StatusError{StatusCode: http.StatusInternalServerError, Body: "boom"}
	src := pagedSource(1, [][]gjson.Result{items(doc(1)), items(doc(2)), items(doc(3))}, 1, failure)
	p := NewProcedure(src, 1, zap.NewNop())

	rs, err := p.Run(context.Background(), spec, testWindow())

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if terr.StatusCode != http.StatusInternalServerError || terr.Offset != 1 {
		t.Fatalf("unexpected transport error: %+v", terr)
	}
	if !rs.Partial || rs.Err == nil {
		t.Fatal("expected partial result set carrying the error")
	}
	if rs.Len() != 1 || rs.Records[0]["id"] != int64(1) {
		t.Fatalf("expected only page 1 records, got %v", rs.Records)
	}
	if n := len(src.PageCalls()); n != 2 {
		t.Fatalf("expected page 3 never requested, got %d calls", n)
	}
}

func TestProcedure_EnrichmentFailureIsIsolated(t *testing.T) {
	spec := documentSpec()
	src := pagedSource(50, [][]gjson.Result{items(doc(1), doc(2), doc(3))}, -1, nil)
	src.ResolveFunc = func(_ context.Context, href string) ([]gjson.Result, error) {
		switch href {
		case "https://api.example/v1/documents/2/sellers.json":
			return nil, &StatusError{StatusCode: http.StatusNotFound}
		case "https://api.example/v1/documents/3/sellers.json":
			return nil, nil
		}
		return items(map[string]any{"id": 42}), nil
	}
	p := NewProcedure(src, 50, zap.NewNop())

	rs, err := p.Run(context.Background(), spec, testWindow())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rs.Len() != 3 {
		t.Fatalf("expected all 3 records, got %d", rs.Len())
	}
	if rs.Records[0]["seller_id"] != int64(42) {
		t.Fatalf("expected seller_id 42, got %v", rs.Records[0]["seller_id"])
	}
	if rs.Records[1]["seller_id"] != nil || rs.Records[2]["seller_id"] != nil {
		t.Fatal("expected nil seller_id for failed lookups")
	}
	if rs.EnrichmentFailures != 2 {
		t.Fatalf("expected 2 enrichment failures, got %d", rs.EnrichmentFailures)
	}
	if rs.Records[1]["total_amount"] == nil {
		t.Fatal("expected other columns populated despite enrichment failure")
	}
}

func TestProcedure_IsIdempotent(t *testing.T) {
	spec := documentSpec()
	newSource := func() *MockSource {
		src := pagedSource(50, [][]gjson.Result{items(doc(1), doc(2))}, -1, nil)
		src.ResolveFunc = func(context.Context, string) ([]gjson.Result, error) {
			return items(map[string]any{"id": 9}), nil
		}
		return src
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wm := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC).Unix()

	first, err := NewProcedure(newSource(), 50, zap.NewNop()).Run(context.Background(), spec, DeriveWindow(&wm, DefaultLookback, now, nil))
	if err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	second, err := NewProcedure(newSource(), 50, zap.NewNop()).Run(context.Background(), spec, DeriveWindow(&wm, DefaultLookback, now, nil))
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}

	if !first.Window.Start.Equal(second.Window.Start) || !first.Window.End.Equal(second.Window.End) {
		t.Fatal("expected identical windows")
	}
	if len(first.Records) != len(second.Records) {
		t.Fatal("expected identical record counts")
	}
	for i := range first.Records {
		if !reflect.DeepEqual(first.Records[i], second.Records[i]) {
			t.Fatalf("record %d differs: %v vs %v", i, first.Records[i], second.Records[i])
		}
	}
}

func TestProcedure_NoDataCondition(t *testing.T) {
	src := &MockSource{}
	p := NewProcedure(src, 50, zap.NewNop())

	rs, err := p.Run(context.Background(), documentSpec(), testWindow())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !errors.Is(rs.Condition, ErrNoData) || !IsCondition(rs.Condition) {
		t.Fatalf("expected ErrNoData condition, got %v", rs.Condition)
	}
	if rs.Requests != 1 {
		t.Fatalf("expected 1 request, got %d", rs.Requests)
	}
}

func TestProcedure_CursorPagination(t *testing.T) {
	yes, no := true, false
	src := &MockSource{
		ListPageFunc: func(_ context.Context, req PageRequest) (*Page, error) {
			switch req.Cursor {
			case "":
				return &Page{Items: items(map[string]any{"id": 1}), HasMore: &yes, NextCursor: "c1"}, nil
			case "c1":
				return &Page{Items: items(map[string]any{"id": 2}), HasMore: &no}, nil
			}
			t.Fatalf("unexpected cursor %q", req.Cursor)
			return nil, nil
		},
	}
	spec := &Spec{Name: "orders", DateParam: "created_at", Fields: []Field{{Column: "id", Path: "id", Kind: KindInt}}}

	rs, err := NewProcedure(src, 100, zap.NewNop()).Run(context.Background(), spec, testWindow())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rs.Len() != 2 || len(src.PageCalls()) != 2 {
		t.Fatalf("expected 2 records over 2 calls, got %d over %d", rs.Len(), len(src.PageCalls()))
	}
}

func TestProcedure_UnwindowedSpecIgnoresZeroWindow(t *testing.T) {
	src := pagedSource(50, [][]gjson.Result{items(map[string]any{"id": 1, "name": "Boleta"})}, -1, nil)
	spec := &Spec{
		Name:   "document_types",
		Fields: []Field{{Column: "id", Path: "id", Kind: KindInt}, {Column: "name", Path: "name", Kind: KindString}},
	}

	rs, err := NewProcedure(src, 50, zap.NewNop()).Run(context.Background(), spec, Window{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rs.Len() != 1 || rs.Records[0]["name"] != "Boleta" {
		t.Fatalf("unexpected records: %v", rs.Records)
	}
}

func TestExtract_MissingPathsAndKinds(t *testing.T) {
	item := gjson.Parse(`{"id": 5, "active": 1, "total": "10.25", "client": null, "meta": {"a": [1,2]}}`)
	fields := []Field{
		{Column: "id", Path: "id", Kind: KindInt},
		{Column: "active", Path: "active", Kind: KindBool},
		{Column: "total", Path: "total", Kind: KindDecimal},
		{Column: "client_id", Path: "client.id", Kind: KindInt},
		{Column: "office_id", Path: "office.id", Kind: KindInt},
		{Column: "meta", Path: "meta", Kind: KindRaw},
	}

	rec := Extract(fields, item)

	if rec["id"] != int64(5) {
		t.Fatalf("expected id 5, got %v", rec["id"])
	}
	if rec["active"] != true {
		t.Fatalf("expected active true, got %v", rec["active"])
	}
	if d, ok := rec["total"].(decimal.Decimal); !ok || !d.Equal(decimal.RequireFromString("10.25")) {
		t.Fatalf("expected decimal 10.25, got %v", rec["total"])
	}
	if rec["client_id"] != nil || rec["office_id"] != nil {
		t.Fatal("expected nil for missing nested paths")
	}
	if _, ok := rec["client_id"]; !ok {
		t.Fatal("expected column present even when nil")
	}
	if rec["meta"] != `{"a": [1,2]}` {
		t.Fatalf("expected raw json, got %v", rec["meta"])
	}
}

func TestExpand_FansOutChildren(t *testing.T) {
	parents := &ResultSet{
		Window: testWindow(),
		Records: []Record{
			{"id": int64(1), "details_href": "https://api.example/d/1/details.json"},
			{"id": int64(2), "details_href": "https://api.example/d/2/details.json"},
			{"id": int64(3), "details_href": nil},
		},
	}
	src := &MockSource{
		ResolveFunc: func(_ context.Context, href string) ([]gjson.Result, error) {
			if href == "https://api.example/d/2/details.json" {
				return nil, errors.New("connection reset")
			}
			return items(
				map[string]any{"id": 10, "quantity": 2},
				map[string]any{"id": 11, "quantity": 1},
			), nil
		},
	}
	child := &ChildSpec{
		Name:       "document_details",
		LinkColumn: "details_href",
		ParentKeys: []Field{{Column: "document_id", Path: "id"}},
		Fields: []Field{
			{Column: "id", Path: "id", Kind: KindInt},
			{Column: "quantity", Path: "quantity", Kind: KindDecimal},
		},
	}

	rs, err := NewProcedure(src, 50, zap.NewNop()).Expand(context.Background(), parents, child)
	if err != nil {
		t.Fatalf("Expand() failed: %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("expected 2 child records, got %d", rs.Len())
	}
	if rs.Records[0]["document_id"] != int64(1) {
		t.Fatalf("expected parent key copied, got %v", rs.Records[0]["document_id"])
	}
	if rs.EnrichmentFailures != 1 {
		t.Fatalf("expected 1 failure, got %d", rs.EnrichmentFailures)
	}
	if n := len(src.ResolveCalls()); n != 2 {
		t.Fatalf("expected 2 resolve calls, got %d", n)
	}
	if want := []string{"document_id", "id", "quantity"}; !reflect.DeepEqual(rs.Columns, want) {
		t.Fatalf("expected columns %v, got %v", want, rs.Columns)
	}
}

func TestNewLog_PassesThrough(t *testing.T) {
	src := pagedSource(50, [][]gjson.Result{items(map[string]any{"id": 1})}, -1, nil)
	spec := &Spec{Name: "clients", Fields: []Field{{Column: "id", Path: "id", Kind: KindInt}}}

	runner := NewLog(NewProcedure(src, 50, zap.NewNop()), zap.NewNop())
	rs, err := runner.Run(context.Background(), spec, Window{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", rs.Len())
	}
}
