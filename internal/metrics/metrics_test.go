package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue reads a counter sample from reg matching every given label
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metrics:
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordHTTPRequest("/api/map", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("/api/map", 404, time.Millisecond)
	m.RecordHTTPRequest("/api/map", 503, time.Millisecond)
	m.RecordQuery("map_direct", 3, nil)
	m.RecordQuery("map_direct", 0, errors.New("boom"))
	m.RecordBulkLoad(10, nil)
	m.RecordBulkLoad(4, errors.New("boom"))

	tests := []struct {
		name   string
		metric string
		labels map[string]string
		want   float64
	}{
		{"4xx requests", "idmap_http_requests_total", map[string]string{"route": "/api/map", "status": "4xx"}, 1},
		{"5xx requests", "idmap_http_requests_total", map[string]string{"route": "/api/map", "status": "5xx"}, 1},
		{"failed queries", "idmap_queries_total", map[string]string{"operation": "map_direct", "status": "error"}, 1},
		{"ok queries", "idmap_queries_total", map[string]string{"operation": "map_direct", "status": "ok"}, 1},
		{"edges loaded", "idmap_edges_loaded_total", nil, 10},
		{"failed loads", "idmap_bulk_loads_total", map[string]string{"status": "error"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, reg, tt.metric, tt.labels); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.metric, got, tt.want)
			}
		})
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("/", 200, time.Millisecond)
	m.RecordQuery("map_full", 1, nil)
	m.RecordBulkLoad(1, nil)
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg)
}
