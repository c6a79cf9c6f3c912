package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring service health and performance
var (
	WebhooksReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Total number of webhook requests received",
		},
	)

	WebhooksAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_accepted_total",
			Help: "Total number of webhook deliveries accepted and stored",
		},
	)

	WebhooksDuplicateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_duplicate_total",
			Help: "Total number of webhook deliveries acknowledged as duplicates",
		},
	)

	WebhooksUnauthorizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_unauthorized_total",
			Help: "Total number of webhook requests rejected for bad signatures",
		},
	)

	WebhooksClientErrorTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_client_error_total",
			Help: "Total number of webhook requests rejected as client errors",
		},
	)

	WebhookProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Duration of webhook delivery processing",
			Buckets: prometheus.DefBuckets,
		},
	)

	DashboardClientsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_clients_connected",
			Help: "Number of currently connected dashboard websocket clients",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(WebhooksReceivedTotal)
	prometheus.MustRegister(WebhooksAcceptedTotal)
	prometheus.MustRegister(WebhooksDuplicateTotal)
	prometheus.MustRegister(WebhooksUnauthorizedTotal)
	prometheus.MustRegister(WebhooksClientErrorTotal)
	prometheus.MustRegister(WebhookProcessingDuration)
	prometheus.MustRegister(DashboardClientsConnected)
}
