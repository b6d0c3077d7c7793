package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accademia", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "route", "status"})
	RoomConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accademia", Name: "room_conflicts_total", Help: "Lesson writes rejected for room overlap",
	})
	Reschedules = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accademia", Name: "lesson_reschedules_total", Help: "Postponed lessons given a new slot",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "accademia", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, RoomConflicts, Reschedules, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func CountRequest(method, route string, status int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
