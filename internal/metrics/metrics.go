// Package metrics exposes Prometheus collectors for the ledger and its HTTP
// surface.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depenses_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Ledger
	ExpensesAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depenses_expenses_added_total",
			Help: "Expenses added to the ledger",
		},
		[]string{"account"},
	)
	NothingToAdd = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depenses_nothing_to_add_total",
			Help: "Add requests where both amounts were zero",
		},
	)
	Resets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depenses_resets_total",
			Help: "Confirmed ledger resets",
		},
	)
	Balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "depenses_balance",
			Help: "Signed settlement balance, positive when paul owes julie",
		},
	)

	// Persistence
	Saves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depenses_saves_total",
			Help: "Ledger saves by trigger and result",
		},
		[]string{"trigger", "result"}, // mutation|autosave|shutdown, ok|error
	)

	initOnce sync.Once
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

// Init registers every collector with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestLatency)
		prometheus.MustRegister(ExpensesAdded)
		prometheus.MustRegister(NothingToAdd)
		prometheus.MustRegister(Resets)
		prometheus.MustRegister(Balance)
		prometheus.MustRegister(Saves)
	})
}

// ObserveSave counts one save attempt.
func ObserveSave(trigger string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Saves.WithLabelValues(trigger, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics records request latency labelled by chi route pattern.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		RequestLatency.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if patt := rc.RoutePattern(); patt != "" {
			return patt
		}
	}
	return "unmatched"
}
