package metrics

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T, subsystem string) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg, "test", subsystem), reg
}

func TestInitMetrics(t *testing.T) {
	// Create fresh registry to avoid conflicts
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "service")

	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal should not be nil")
	}
	if m.SettlementsTotal == nil {
		t.Error("SettlementsTotal should not be nil")
	}
	if Get() != m {
		t.Error("Get() should return the initialized instance")
	}
}

func TestGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Error("Get() should not return nil")
	}

	// Second call should return same instance
	m2 := Get()
	if m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordRequest(t *testing.T) {
	m, _ := newTestMetrics(t, "http")

	m.RecordRequest("/splitit.settlement.v1.SettlementService/Settle", "200", 100*time.Millisecond)
	m.RecordRequest("/splitit.settlement.v1.SettlementService/Settle", "200", 50*time.Millisecond)
	m.RecordRequest("/splitit.settlement.v1.SettlementService/Settle", "400", 5*time.Millisecond)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/splitit.settlement.v1.SettlementService/Settle", "200"))
	if got != 2 {
		t.Errorf("requests_total{code=200} = %v, want 2", got)
	}
}

func TestRecordSettlement(t *testing.T) {
	m, _ := newTestMetrics(t, "settle")

	m.RecordSettlement(true, 2*time.Millisecond, 20, 2, 2)
	m.RecordSettlement(false, time.Millisecond, 0, 0, 0)

	if got := testutil.ToFloat64(m.SettlementsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("settlements_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SettlementsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("settlements_total{error} = %v, want 1", got)
	}
	// Failed runs do not overwrite the last max flow
	if got := testutil.ToFloat64(m.MaxFlowValue); got != 20 {
		t.Errorf("max_flow_value = %v, want 20", got)
	}
}

func TestRecordNetworkSize(t *testing.T) {
	m, reg := newTestMetrics(t, "network")

	m.RecordNetworkSize(5, 11)
	m.RecordNetworkSize(10, 60)

	count, err := testutil.GatherAndCount(reg, "test_network_network_nodes")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected one network_nodes series, got %d", count)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	m, _ := newTestMetrics(t, "cache")

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestRecordReport(t *testing.T) {
	m, _ := newTestMetrics(t, "report")

	m.RecordReport("pdf", true)
	m.RecordReport("pdf", false)

	if got := testutil.ToFloat64(m.ReportsGenerated.WithLabelValues("pdf", "success")); got != 1 {
		t.Errorf("reports{pdf,success} = %v, want 1", got)
	}
}

func TestSetServiceInfo(t *testing.T) {
	m, _ := newTestMetrics(t, "info")

	m.SetServiceInfo("1.0.0", "production")

	if got := testutil.ToFloat64(m.ServiceInfo.WithLabelValues("1.0.0", "production")); got != 1 {
		t.Errorf("service_info = %v, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	m, _ := newTestMetrics(t, "mw")

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := testutil.ToFloat64(m.RequestsInFlight); got != 1 {
			t.Errorf("in flight during request = %v, want 1", got)
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/health", "418")); got != 1 {
		t.Errorf("requests_total{/health,418} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsInFlight); got != 0 {
		t.Errorf("in flight after request = %v, want 0", got)
	}
}

func TestRuntimeCollector(t *testing.T) {
	collector := NewRuntimeCollector("test", "runtime")

	descCh := make(chan *prometheus.Desc, 10)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 descriptors, got %d", count)
	}

	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count = 0
	for range metricCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 metrics, got %d", count)
	}
}

func TestRuntimeCollector_GCPause(t *testing.T) {
	// Force a GC to ensure we have GC data
	runtime.GC()

	collector := NewRuntimeCollector("test", "gc")
	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count := 0
	for range metricCh {
		count++
	}
	if count != 6 {
		t.Errorf("expected 6 metrics after a GC cycle, got %d", count)
	}
}

func TestRequestTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_in_flight",
	})

	tracker := NewRequestTracker(gauge)

	tracker.Start("/settle")
	tracker.Start("/settle")
	tracker.Start("/health")

	if tracker.active["/settle"] != 2 {
		t.Errorf("active[/settle] = %d, want 2", tracker.active["/settle"])
	}
	if got := testutil.ToFloat64(gauge); got != 3 {
		t.Errorf("gauge = %v, want 3", got)
	}

	tracker.End("/settle")
	if tracker.active["/settle"] != 1 {
		t.Errorf("active[/settle] = %d, want 1", tracker.active["/settle"])
	}

	// End more than started should not go negative
	tracker.End("/settle")
	tracker.End("/settle")
	if tracker.active["/settle"] < 0 {
		t.Error("active count should not go negative")
	}
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration",
			Buckets: []float64{.01, .1, 1},
		},
		[]string{"stage"},
	)

	timer := NewTimer(histogram, "solve")

	time.Sleep(10 * time.Millisecond)

	duration := timer.ObserveDuration()
	if duration < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", duration)
	}
}

func TestNewMetricsServer(t *testing.T) {
	srv := NewMetricsServer(9191, "")
	if srv.Addr != ":9191" {
		t.Errorf("addr = %s", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d", rec.Code)
	}
}
