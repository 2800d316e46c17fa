package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Extraction metrics
	ScrapeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_runs_total",
			Help: "Total number of extraction runs by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ScrapeRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_run_duration_seconds",
			Help:    "Duration of extraction runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"strategy"},
	)

	PagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pages_fetched_total",
			Help: "Total number of pages fetched during extraction runs",
		},
	)
)

// Middleware returns gin middleware recording request count and duration.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
