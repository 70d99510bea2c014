package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — метрики одного запуска CLI.
//
// Используется собственный Registry, а не глобальный: в textfile
// не должны попадать go_* и process_* метрики короткоживущего процесса.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	streamBatch  prometheus.Counter
	streamLines  prometheus.Counter
	commandTotal *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rd_api_requests_total",
			Help: "Total API requests issued by rd, by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rd_api_request_duration_seconds",
			Help:    "API request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		streamBatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rd_stream_batches_total",
			Help: "Execution output batches fetched while following.",
		}),
		streamLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rd_stream_lines_total",
			Help: "Execution output log entries received while following.",
		}),
		commandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rd_commands_total",
			Help: "Commands run by result (ok, unsuccessful, error).",
		}, []string{"command", "result"}),
	}

	m.registry.MustRegister(m.apiRequests, m.apiDuration, m.streamBatch, m.streamLines, m.commandTotal)
	return m
}

// ObserveRequest учитывает один HTTP-вызов. code=0 — транспортная ошибка.
func (m *Metrics) ObserveRequest(endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.apiRequests.WithLabelValues(endpoint, label).Inc()
	m.apiDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveBatch учитывает одну порцию вывода execution.
func (m *Metrics) ObserveBatch(entries int) {
	if m == nil {
		return
	}
	m.streamBatch.Inc()
	m.streamLines.Add(float64(entries))
}

// ObserveCommand учитывает завершение команды.
func (m *Metrics) ObserveCommand(command, result string) {
	if m == nil {
		return
	}
	m.commandTotal.WithLabelValues(command, result).Inc()
}

// Gatherer возвращает registry для тестов и экспорта.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile выгружает метрики в файл в текстовом формате Prometheus.
// Запись атомарна (через временный файл), как того требует textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
