package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry and appear after being seeded.
func TestMetricsRegistered(t *testing.T) {
	expected := map[string]bool{
		"strom_requests_total":                  false,
		"strom_request_duration_seconds":        false,
		"strom_stream_sessions_active":          false,
		"strom_stream_sessions_total":           false,
		"strom_stream_session_duration_seconds": false,
		"strom_records_streamed_total":          false,
		"strom_stream_bytes_total":              false,
	}

	// Counters and histograms only appear in Gather output after the
	// first observation, so seed everything.
	RequestsTotal.WithLabelValues("GET", "2xx", "/v1/records").Inc()
	RequestDuration.WithLabelValues("GET", "/v1/records").Observe(0.1)
	StreamSessionsActive.Set(0)
	StreamSessionsTotal.WithLabelValues("completed").Inc()
	StreamSessionDuration.Observe(0.1)
	RecordsStreamed.Add(1)
	BytesStreamed.Add(1)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, seen := range expected {
		if !seen {
			t.Errorf("metric %s not found in registry", name)
		}
	}
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := MetricsMiddleware(mux)

	before := counterValue(t, "strom_requests_total", map[string]string{
		"method": "GET", "status": "4xx", "route": "GET /v1/records/{id}",
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/records/rec_x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := counterValue(t, "strom_requests_total", map[string]string{
		"method": "GET", "status": "4xx", "route": "GET /v1/records/{id}",
	})
	if after != before+1 {
		t.Errorf("requests_total = %v, want %v", after, before+1)
	}
}

func TestStatusWriterDefaultsTo200(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// counterValue gathers the current value of a labeled counter, or 0 if
// the series does not exist yet.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}
