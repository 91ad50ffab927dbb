package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crimson-sun/warden/internal/engine"
	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/engine/patterns"
	"github.com/crimson-sun/warden/internal/engine/scorer"
	"github.com/crimson-sun/warden/internal/engine/severity"
	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/observability"
	"github.com/crimson-sun/warden/internal/pipeline"
)

type discard struct{}

func (discard) Write(_ context.Context, _ model.Verdict) error { return nil }
func (discard) Close() error                                   { return nil }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	schema := features.DefaultSchema()
	ext, err := features.NewExtractor(schema, patterns.DefaultCatalogue(), 0, 0)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	sev, err := severity.New(severity.DefaultConfig(), schema)
	if err != nil {
		t.Fatalf("severity.New: %v", err)
	}
	eng := engine.New(ext, scorer.NewStatic(schema), sev)

	m := observability.NewMetrics(nil)
	p := pipeline.New(eng, discard{}, pipeline.WithMetrics(m))
	s := New(p, m, nil)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/alerts"
}

func TestWebsocketRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	record := model.RawRecord{"url": "/login?id=1' or 1=1--", "body": "", "ip": "1.2.3.4"}
	if err := conn.WriteJSON(record); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var v model.Verdict
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("read: %v", err)
	}
	if v.Label != model.LabelSQLi {
		t.Fatalf("label = %s, want %s", v.Label, model.LabelSQLi)
	}
	if v.SourceIP != "1.2.3.4" {
		t.Fatalf("SourceIP = %q", v.SourceIP)
	}
	if v.Timestamp.IsZero() {
		t.Fatal("verdict missing a timestamp")
	}
}

func TestWebsocketBroadcastToAllClients(t *testing.T) {
	_, ts := newTestServer(t)

	sender, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()

	watcher, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial watcher: %v", err)
	}
	defer watcher.Close()

	if err := sender.WriteJSON(model.RawRecord{"url": "/x", "body": ""}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{sender, watcher} {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var v model.Verdict
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("read: %v", err)
		}
		if v.URL != "/x" {
			t.Fatalf("URL = %q", v.URL)
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	s.remember(model.Verdict{Label: model.LabelSQLi, SeverityLevel: model.SeverityHigh})
	s.remember(model.Verdict{Label: model.LabelBenign, SeverityLevel: model.SeveritySafe, Degraded: true})

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Total    int            `json:"total"`
		Counts   map[string]int `json:"counts"`
		Degraded int            `json:"degraded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || body.Degraded != 1 {
		t.Fatalf("total/degraded = %d/%d, want 2/1", body.Total, body.Degraded)
	}
	if body.Counts["SQLi"] != 1 {
		t.Fatalf("counts = %v", body.Counts)
	}
}

func TestEventsEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.remember(model.Verdict{URL: "/e", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	resp, err := http.Get(ts.URL + "/api/events?limit=3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var events []model.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Newest first.
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Fatalf("events not newest-first: %v then %v", events[0].Timestamp, events[1].Timestamp)
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
