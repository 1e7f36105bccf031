package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// HTTP / connect метрики
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Бизнес-метрики
	SettlementsTotal   *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	MaxFlowValue       prometheus.Gauge
	Iterations         prometheus.Histogram
	TransfersPerRun    prometheus.Histogram
	NetworkNodes       prometheus.Histogram
	NetworkEdges       prometheus.Histogram
	CacheRequests      *prometheus.CounterVec
	ReportsGenerated   *prometheus.CounterVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	tracker *RequestTracker
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики в prometheus.DefaultRegisterer
func InitMetrics(namespace, subsystem string) *Metrics {
	m := NewMetrics(prometheus.DefaultRegisterer, namespace, subsystem)
	defaultMetrics = m
	return m
}

// NewMetrics создаёт метрики в указанном реестре
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"procedure", "code"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"procedure"},
		),

		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_in_flight",
				Help:      "Current number of API requests being processed",
			},
		),

		// Бизнес-метрики
		SettlementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlements_total",
				Help:      "Total number of settlement runs",
			},
			[]string{"status"},
		),

		SettlementDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlement_duration_seconds",
				Help:      "Duration of settlement runs",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		MaxFlowValue: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "max_flow_value",
				Help:      "Total amount moved by the last settlement",
			},
		),

		Iterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "augmenting_paths",
				Help:      "Number of augmenting paths per settlement",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 500},
			},
		),

		TransfersPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfers_per_settlement",
				Help:      "Number of transfers in a settlement plan",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
			},
		),

		NetworkNodes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_nodes",
				Help:      "Number of nodes in settlement networks",
				Buckets:   []float64{4, 10, 50, 100, 500, 1000},
			},
		),

		NetworkEdges: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_edges",
				Help:      "Number of edges in settlement networks",
				Buckets:   []float64{10, 100, 1000, 10000, 100000, 250000},
			},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_requests_total",
				Help:      "Settlement cache lookups by result",
			},
			[]string{"result"},
		),

		ReportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_generated_total",
				Help:      "Rendered settlement reports by format",
			},
			[]string{"format", "status"},
		),

		ServiceInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	reg.MustRegister(NewRuntimeCollector(namespace, subsystem))

	m.tracker = NewRequestTracker(m.RequestsInFlight)
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("splitit", "")
	}
	return defaultMetrics
}

// Tracker возвращает трекер активных запросов
func (m *Metrics) Tracker() *RequestTracker {
	return m.tracker
}

// RecordRequest записывает метрики API запроса
func (m *Metrics) RecordRequest(procedure, code string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(procedure, code).Inc()
	m.RequestDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordSettlement записывает метрики расчёта
func (m *Metrics) RecordSettlement(success bool, duration time.Duration, maxFlow float64, iterations, transfers int) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SettlementsTotal.WithLabelValues(status).Inc()
	m.SettlementDuration.Observe(duration.Seconds())
	if success {
		m.MaxFlowValue.Set(maxFlow)
		m.Iterations.Observe(float64(iterations))
		m.TransfersPerRun.Observe(float64(transfers))
	}
}

// RecordNetworkSize записывает размер сети
func (m *Metrics) RecordNetworkSize(nodes, edges int) {
	m.NetworkNodes.Observe(float64(nodes))
	m.NetworkEdges.Observe(float64(edges))
}

// RecordCacheLookup записывает попадание или промах кэша
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// RecordReport записывает генерацию отчёта
func (m *Metrics) RecordReport(format string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReportsGenerated.WithLabelValues(format, status).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer создаёт отдельный HTTP сервер для метрик
func NewMetricsServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, Handler())

	return &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
