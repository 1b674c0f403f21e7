package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring deal flow and rejected attempts
var (
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_transitions_total",
			Help: "Total number of applied transaction state transitions",
		},
		[]string{"to_status"},
	)

	RejectedAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_rejected_attempts_total",
			Help: "Total number of rejected transition attempts",
		},
		[]string{"operation"},
	)

	OTPVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "Total number of OTP verification attempts",
		},
		[]string{"result"},
	)

	PaymentConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Total number of payment confirmations processed",
		},
		[]string{"milestone", "result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		TransitionsTotal,
		RejectedAttemptsTotal,
		OTPVerificationsTotal,
		PaymentConfirmationsTotal,
		HTTPRequestDuration,
	)
}
