package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - коллекторы одного сервера.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Счётчики сайта новостей
	CommentsCreated  prometheus.Counter
	CommentsRejected prometheus.Counter

	// Счётчики сайта заметок
	NotesCreated prometheus.Counter
}

// New регистрирует метрики в собственном реестре, чтобы серверы и тесты
// не делили глобальный.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CommentsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Number of comments saved",
		}),
		CommentsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "comments_rejected_total",
			Help: "Number of comments rejected by validation",
		}),
		NotesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "notes_created_total",
			Help: "Number of notes created",
		}),
	}
}

// Handler отдаёт метрики в формате prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
