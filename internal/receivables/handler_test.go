package receivables

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quipu-reports/quipu/internal/engine"
	"github.com/quipu-reports/quipu/internal/ledger"
	"github.com/quipu-reports/quipu/internal/ledger/ledgertest"
)

func testServer(t *testing.T, src *ledgertest.Source) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(src, NewProfile("PE"), logger)
	h := NewHandler(logger, NewService(eng, nil))

	r := chi.NewRouter()
	h.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func seedLines(src *ledgertest.Source, n int64) {
	for id := int64(1); id <= n; id++ {
		src.Add(ledger.EntityLine, ledger.Record{
			"id":              float64(id),
			"move_id":         []any{float64(100), "F001-123"},
			"partner_id":      []any{float64(200), "ACME SAC"},
			"account_id":      []any{float64(300), "1212001"},
			"date":            "2025-04-01",
			"debit":           float64(100),
			"amount_residual": float64(100),
		})
	}
}

func getJSON(t *testing.T, url string, dest any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestReportEnvelope(t *testing.T) {
	src := ledgertest.New()
	seedLines(src, 7)
	srv := testServer(t, src)

	var body struct {
		Success    bool                 `json:"success"`
		Data       []engine.ReportRow   `json:"data"`
		Count      int                  `json:"count"`
		Summary    engine.GroupTotals   `json:"summary"`
		Filters    map[string]any       `json:"filters"`
		Page       int                  `json:"page"`
		PerPage    int                  `json:"per_page"`
		TotalPages int                  `json:"total_pages"`
		HasMore    bool                 `json:"has_more"`
		TotalCount int                  `json:"total_count"`
	}
	resp := getJSON(t, srv.URL+"/report?page=2&per_page=3", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if !body.Success {
		t.Fatal("success flag missing")
	}
	if body.Count != 3 || len(body.Data) != 3 {
		t.Fatalf("count mismatch: count %d, %d rows", body.Count, len(body.Data))
	}
	if body.Page != 2 || body.PerPage != 3 || body.TotalPages != 3 || body.TotalCount != 7 {
		t.Fatalf("pagination meta mismatch: %+v", body)
	}
	if !body.HasMore {
		t.Fatal("page 2 of 3 must report more")
	}
	if body.Summary.Debit != 300 {
		t.Fatalf("page summary mismatch: %+v", body.Summary)
	}
	if body.Filters == nil {
		t.Fatal("applied filters must echo back")
	}
}

func TestReportRejectsBadFilters(t *testing.T) {
	srv := testServer(t, ledgertest.New())

	resp := getJSON(t, srv.URL+"/report?date_from=30/06/2025", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/report?date_cutoff=2025-06-30&date_from=2025-01-01", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("cutoff and range together: %d", resp.StatusCode)
	}
}

func TestReportEmptyDataIsArray(t *testing.T) {
	srv := testServer(t, ledgertest.New())

	resp, err := http.Get(srv.URL + "/report")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"data":[]`) {
		t.Fatalf("empty result must serialize as []: %s", raw)
	}
}

func TestSummaryByAgingEmitsAllBands(t *testing.T) {
	src := ledgertest.New()
	seedLines(src, 2)
	srv := testServer(t, src)

	var body struct {
		Data    []engine.GroupTotals `json:"data"`
		Summary engine.GroupTotals   `json:"summary"`
	}
	resp := getJSON(t, srv.URL+"/summary/by-aging", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if len(body.Data) != len(engine.AgingBuckets) {
		t.Fatalf("expected %d bands, got %d", len(engine.AgingBuckets), len(body.Data))
	}
	if body.Summary.Count != 2 {
		t.Fatalf("overall count: %+v", body.Summary)
	}
}

func TestExportIsCSVAttachment(t *testing.T) {
	src := ledgertest.New()
	seedLines(src, 2)
	srv := testServer(t, src)

	resp, err := http.Get(srv.URL + "/report/export")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type: %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "collections_") {
		t.Fatalf("content disposition: %q", cd)
	}
	raw, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t, ledgertest.New())

	var body struct {
		Data map[string]any `json:"data"`
	}
	resp := getJSON(t, srv.URL+"/status", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if body.Data["service"] != "collections" || body.Data["status"] != "ok" {
		t.Fatalf("status payload mismatch: %+v", body.Data)
	}
}
