package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	FlushRefreshed = "refreshed"
	FlushFiltered  = "filtered"
	FlushClosed    = "closed"
)

type Reporter interface {
	IncrementConnection(transport string)
	DecrementConnection(transport string)
	AddSentMessageCount(count int, transport string)

	IncrementReceivedEvent()
	IncrementFlush(outcome string)

	HttpHandler() http.Handler
}

type reporter struct {
	registry         *prometheus.Registry
	httpResponseTime *prometheus.HistogramVec
	connections      *prometheus.GaugeVec
	messageSent      *prometheus.CounterVec
	eventsReceived   prometheus.Counter
	flushes          *prometheus.CounterVec
}

func NewReporter() Reporter {
	reg := prometheus.NewRegistry()

	httpRespTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "livereload",
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of HTTP response time in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "livereload",
		Name:      "client_connections",
		Help:      "Number of connected reload clients per transport.",
	}, []string{"transport"})

	messageSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livereload",
		Name:      "reload_msg_sent_total",
		Help:      "Total number of reload commands sent to clients.",
	}, []string{"transport"})

	eventsReceived := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "livereload",
		Name:      "events_received_total",
		Help:      "Total number of change events received from the emitter.",
	})

	flushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livereload",
		Name:      "flushes_total",
		Help:      "Total number of coalesced flushes by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRespTime,
		connections,
		messageSent,
		eventsReceived,
		flushes,
	)

	return &reporter{
		registry:         reg,
		httpResponseTime: httpRespTime,
		connections:      connections,
		messageSent:      messageSent,
		eventsReceived:   eventsReceived,
		flushes:          flushes,
	}
}

func (r *reporter) HttpHandler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *reporter) IncrementConnection(transport string) {
	r.connections.WithLabelValues(transport).Inc()
}

func (r *reporter) DecrementConnection(transport string) {
	r.connections.WithLabelValues(transport).Dec()
}

func (r *reporter) AddSentMessageCount(count int, transport string) {
	r.messageSent.WithLabelValues(transport).Add(float64(count))
}

func (r *reporter) IncrementReceivedEvent() {
	r.eventsReceived.Inc()
}

func (r *reporter) IncrementFlush(outcome string) {
	r.flushes.WithLabelValues(outcome).Inc()
}
