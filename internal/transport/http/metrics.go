package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	readingsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_recorded_total",
			Help: "Total number of usage readings recorded via /submit.",
		},
	)

	chartRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_renders_total",
			Help: "Total number of chart render attempts.",
		},
		[]string{"status"},
	)
	chartRenderDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chart_render_duration_seconds",
			Help:    "Chart render latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func observeHTTPRequest(r *http.Request, status int, dur time.Duration) {
	route := routeLabel(r.URL.Path)
	method := r.Method

	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, method).Observe(dur.Seconds())
}

func observeChartRender(status string, dur time.Duration) {
	chartRendersTotal.WithLabelValues(status).Inc()
	chartRenderDurationSeconds.Observe(dur.Seconds())
}

func routeLabel(path string) string {
	switch path {
	case "/":
		return "index"
	case "/submit":
		return "submit"
	case "/visualize":
		return "visualize"
	case "/api/readings":
		return "api_readings"
	case "/healthz":
		return "healthz"
	case "/metrics":
		return "metrics"
	}
	if strings.HasPrefix(path, "/static/") {
		return "static"
	}
	return "other"
}
