package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	OneTimeCodesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_one_time_codes_issued_total",
			Help: "Total number of verification codes and reset tokens issued.",
		},
		[]string{"purpose"},
	)

	OneTimeCodeChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_one_time_code_checks_total",
			Help: "Total number of submitted verification codes and reset tokens.",
		},
		[]string{"purpose", "result"},
	)

	SMSDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_sms_deliveries_total",
			Help: "Total number of SMS delivery attempts.",
		},
		[]string{"provider", "result"},
	)

	AccessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_access_decisions_total",
			Help: "Total number of access gate decisions.",
		},
		[]string{"result"},
	)
)

// MustRegister registra os coletores no registry informado
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		RegistrationsTotal,
		LoginsTotal,
		OneTimeCodesIssuedTotal,
		OneTimeCodeChecksTotal,
		SMSDeliveriesTotal,
		AccessDecisionsTotal,
	)
}
