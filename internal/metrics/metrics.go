package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitrack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WalletOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitrack_wallet_operations_total",
			Help: "Wallet ledger operations by transaction type and result",
		},
		[]string{"type", "result"},
	)

	WalletConflictRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circuitrack_wallet_conflict_retries_total",
			Help: "Balance writes retried after a concurrent modification",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitrack_settlements_total",
			Help: "Order settlements by result",
		},
		[]string{"result"},
	)

	CashbackAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circuitrack_cashback_awarded_total",
			Help: "Cashback credited to wallets, in currency units",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordWalletOperation(txType, result string) {
	WalletOperationsTotal.WithLabelValues(txType, result).Inc()
}

func RecordConflictRetry() {
	WalletConflictRetriesTotal.Inc()
}

func RecordSettlement(result string) {
	SettlementsTotal.WithLabelValues(result).Inc()
}

func RecordCashback(amount decimal.Decimal) {
	f, _ := amount.Float64()
	CashbackAwardedTotal.Add(f)
}
