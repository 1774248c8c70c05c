package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vietddude/taskwatch/internal/monitor"
)

// =============================================================================
// Stubs
// =============================================================================

type stubSource struct {
	mu    sync.Mutex
	stats monitor.Stats
}

func (s *stubSource) Stats() monitor.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *stubSource) set(st monitor.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = st
}

// =============================================================================
// Tests
// =============================================================================

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		stats monitor.Stats
		want  SystemStatus
	}{
		{"clean", monitor.Stats{}, StatusHealthy},
		{"warnings", monitor.Stats{Warnings: 2}, StatusDegraded},
		{"sink errors", monitor.Stats{SinkErrors: 1}, StatusDegraded},
		{"errors", monitor.Stats{Errors: 1, Warnings: 3}, StatusCritical},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.stats); got != tt.want {
			t.Errorf("%s: Evaluate() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestChecker_WorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("a", &stubSource{stats: monitor.Stats{Name: "a"}})
	c.Register("b", &stubSource{stats: monitor.Stats{Name: "b", Warnings: 1}})

	report := c.Check()
	if report.SystemStatus != StatusDegraded {
		t.Errorf("SystemStatus = %s, want degraded", report.SystemStatus)
	}
	if report.Monitors["a"].Status != StatusHealthy {
		t.Errorf("monitor a = %s, want healthy", report.Monitors["a"].Status)
	}

	c.Register("c", &stubSource{stats: monitor.Stats{Name: "c", Errors: 1}})
	if got := c.Check().SystemStatus; got != StatusCritical {
		t.Errorf("SystemStatus = %s, want critical", got)
	}
}

func TestServer_Health(t *testing.T) {
	src := &stubSource{}
	c := NewChecker()
	c.Register("main", src)
	srv := httptest.NewServer(NewServer(c, ":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthy status code = %d, want 200", resp.StatusCode)
	}

	src.set(monitor.Stats{Errors: 1})
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("critical status code = %d, want 503", resp.StatusCode)
	}
	if body["status"] != "critical" {
		t.Errorf("status = %q, want critical", body["status"])
	}
}

func TestServer_Detailed(t *testing.T) {
	c := NewChecker()
	c.Register("main", &stubSource{stats: monitor.Stats{Name: "main", Warnings: 2, LastID: "3"}})
	srv := httptest.NewServer(NewServer(c, ":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/detailed")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	h, ok := report.Monitors["main"]
	if !ok {
		t.Fatal("missing monitor in report")
	}
	if h.Warnings != 2 || h.LastID != "3" || h.Status != StatusDegraded {
		t.Errorf("unexpected detail: %+v", h)
	}
}
