package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geochat_http_requests_total",
			Help: "Total number of HTTP requests processed by the geochat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geochat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geochat_messages_sent_total",
			Help: "Total number of chat messages persisted.",
		},
	)
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geochat_chat_requests_total",
			Help: "Total number of chat request transitions.",
		},
		[]string{"outcome"},
	)
	liveSharesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geochat_live_shares_active",
			Help: "Number of live location broadcasts currently running a watch.",
		},
	)
	liveUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geochat_live_updates_total",
			Help: "Total number of live location position persists.",
		},
		[]string{"result"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geochat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		messagesSentTotal,
		chatRequestsTotal,
		liveSharesActive,
		liveUpdatesTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncMessageSent() {
	messagesSentTotal.Inc()
}

func IncChatRequest(outcome string) {
	chatRequestsTotal.WithLabelValues(outcome).Inc()
}

func IncLiveShareStarted() {
	liveSharesActive.Inc()
}

func IncLiveShareStopped() {
	liveSharesActive.Dec()
}

func IncLiveUpdate() {
	liveUpdatesTotal.WithLabelValues("ok").Inc()
}

func IncLiveUpdateError() {
	liveUpdatesTotal.WithLabelValues("error").Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
