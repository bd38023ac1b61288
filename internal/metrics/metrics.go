package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the marketplace collectors. The default registry is not used.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bscar",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bscar",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	listingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "listings",
			Name:      "created_total",
			Help:      "Listings created.",
		},
	)

	listingsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "listings",
			Name:      "deleted_total",
			Help:      "Listings deleted, by who removed them.",
		},
		[]string{"by"},
	)

	uploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "uploads",
			Name:      "rejected_total",
			Help:      "Uploaded files skipped during intake.",
		},
		[]string{"reason"},
	)

	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "chats",
			Name:      "messages_total",
			Help:      "Chat messages appended.",
		},
	)

	moderationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bscar",
			Subsystem: "moderation",
			Name:      "actions_total",
			Help:      "Admin actions recorded in the audit log.",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		listingsCreated,
		listingsDeleted,
		uploadsRejected,
		messagesSent,
		moderationActions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func ListingCreated() { listingsCreated.Inc() }

// ListingDeleted counts a deletion; by is "owner" or "admin".
func ListingDeleted(by string) { listingsDeleted.WithLabelValues(by).Inc() }

func UploadRejected(reason string) { uploadsRejected.WithLabelValues(reason).Inc() }

func MessageSent() { messagesSent.Inc() }

func ModerationAction(action string) { moderationActions.WithLabelValues(action).Inc() }
