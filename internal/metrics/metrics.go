package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_total", Help: "Count of market quotes sampled"},
		[]string{"pair"},
	)
	SamplingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sampling_failures_total", Help: "Per-pair sampler failures skipped for the tick"},
		[]string{"pair"},
	)
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Aggregated bars produced at major ticks"},
		[]string{"pair"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decisions_total", Help: "Consensus decisions resolved"},
		[]string{"pair", "decision"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"pair", "side"},
	)
	TradeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trade_rejections_total", Help: "Trades rejected by the funds gate or venue"},
		[]string{"pair", "reason"},
	)
)

func init() {
	prometheus.MustRegister(QuotesTotal, SamplingFailures, BarsTotal, DecisionsTotal, OrdersTotal, TradeRejections)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
