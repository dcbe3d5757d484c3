package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/silencecut/silencecut/internal/media"
	"github.com/silencecut/silencecut/internal/playback"
)

func testConfig() ServerConfig {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ServerConfig{
		Port:            0,
		Playback:        playback.NewServer(logger, media.ProxyPrefix),
		ProxySampleRate: media.DefaultProxySampleRate,
		Logger:          logger,
		StartTime:       time.Now(),
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func newJSONRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthHandler(t *testing.T) {
	cfg := testConfig()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	healthHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Fatalf("status = %v, want ok", body["status"])
	}
	if body["version"] == "" {
		t.Fatal("version missing from response")
	}
}

const sampleReport = `[silencedetect @ 0x7f] silence_start: 1
[silencedetect @ 0x7f] silence_end: 2 | silence_duration: 1
[silencedetect @ 0x7f] silence_start: 5
[silencedetect @ 0x7f] silence_end: 6 | silence_duration: 1
`

func TestPlanHandler_FromReport(t *testing.T) {
	cfg := testConfig()
	pad := 0.1
	minKeep := 0.1

	req := newJSONRequest(t, http.MethodPost, "/plan", PlanRequest{
		Report:         sampleReport,
		SourceDuration: 6,
		PadSec:         &pad,
		MinKeepSec:     &minKeep,
	})
	rr := httptest.NewRecorder()

	planHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp PlanResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Cached {
		t.Fatal("report plans are never cached")
	}
	if got := len(resp.Plan.Keeps); got != 2 {
		t.Fatalf("keep count = %d, want 2", got)
	}
	first := resp.Plan.Keeps[0]
	if first.Start != 0 || first.End != 0.9 {
		t.Fatalf("first keep = (%v, %v), want (0, 0.9)", first.Start, first.End)
	}
}

func TestPlanHandler_ReportWithoutDuration(t *testing.T) {
	cfg := testConfig()

	req := newJSONRequest(t, http.MethodPost, "/plan", PlanRequest{Report: sampleReport})
	rr := httptest.NewRecorder()

	planHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlanHandler_NoInput(t *testing.T) {
	cfg := testConfig()

	req := newJSONRequest(t, http.MethodPost, "/plan", PlanRequest{})
	rr := httptest.NewRecorder()

	planHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlanHandler_RejectsPositiveThreshold(t *testing.T) {
	cfg := testConfig()
	threshold := 3.0

	req := newJSONRequest(t, http.MethodPost, "/plan", PlanRequest{
		Report:         sampleReport,
		SourceDuration: 6,
		ThresholdDb:    &threshold,
	})
	rr := httptest.NewRecorder()

	planHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlanHandler_InvalidBody(t *testing.T) {
	cfg := testConfig()

	req := httptest.NewRequest(http.MethodPost, "/plan", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()

	planHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportHandler_MissingFields(t *testing.T) {
	cfg := testConfig()

	req := newJSONRequest(t, http.MethodPost, "/export", ExportRequest{})
	rr := httptest.NewRecorder()

	exportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportHandler_UnknownFormat(t *testing.T) {
	cfg := testConfig()

	req := newJSONRequest(t, http.MethodPost, "/export", ExportRequest{
		Path:      "/media/a.mp4",
		OutputDir: t.TempDir(),
		Format:    "otio",
	})
	rr := httptest.NewRecorder()

	exportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportHandler_RelativeOutputDir(t *testing.T) {
	cfg := testConfig()

	req := newJSONRequest(t, http.MethodPost, "/export", ExportRequest{
		Path:      "/media/a.mp4",
		OutputDir: "../exports",
	})
	rr := httptest.NewRecorder()

	exportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMediaHandler_MissingPath(t *testing.T) {
	cfg := testConfig()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media", nil)

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMediaHandler_MapsSourceToProxy(t *testing.T) {
	cfg := testConfig()

	dir := t.TempDir()
	source := filepath.Join(dir, "talk.mp4")
	proxy := media.ProxyPath(source)
	if err := os.WriteFile(proxy, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write proxy: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media?path="+url.QueryEscape(source), nil)

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "0123456789" {
		t.Fatalf("body = %q, want full proxy content", got)
	}
}

func TestMediaHandler_RangeRequest(t *testing.T) {
	cfg := testConfig()

	dir := t.TempDir()
	source := filepath.Join(dir, "talk.mp4")
	proxy := media.ProxyPath(source)
	if err := os.WriteFile(proxy, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write proxy: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media?path="+url.QueryEscape(proxy), nil)
	req.Header.Set("Range", "bytes=2-5")

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusPartialContent)
	}
	if got := rr.Body.String(); got != "2345" {
		t.Fatalf("body = %q, want %q", got, "2345")
	}
}

func TestMediaHandler_ProxyMissing(t *testing.T) {
	cfg := testConfig()

	source := filepath.Join(t.TempDir(), "talk.mp4")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media?path="+url.QueryEscape(source), nil)

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRouter_HealthEndToEnd(t *testing.T) {
	router := NewRouter(testConfig())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID header missing")
	}
}
