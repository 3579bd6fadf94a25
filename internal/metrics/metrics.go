package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_iterations_total", Help: "Loop iterations by outcome"},
		[]string{"outcome"},
	)
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_predictions_total", Help: "Strategy predictions"},
		[]string{"strategy", "prediction"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_orders_total", Help: "Limit orders accepted by the venue"},
		[]string{"pair", "side"},
	)
	OrdersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trader_orders_rejected_total", Help: "Orders rejected by venue validation"},
	)
	CancelsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trader_cancels_total", Help: "Open orders cancelled after patience ran out"},
	)
	FailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_failures_total", Help: "Counted iteration failures by kind"},
		[]string{"kind"},
	)
	BackoffsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trader_backoffs_total", Help: "Extended backoff sleeps"},
	)
	RetryCounter = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trader_retry_counter", Help: "Current retry counter"},
	)
	CancelCounter = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trader_cancel_counter", Help: "Current cancel-patience counter"},
	)
)

func init() {
	prometheus.MustRegister(
		IterationsTotal, PredictionsTotal, OrdersTotal, OrdersRejected,
		CancelsTotal, FailuresTotal, BackoffsTotal, RetryCounter, CancelCounter,
	)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
