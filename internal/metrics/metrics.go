package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	EmailsGenerated   prometheus.Counter
	EmailsSent        prometheus.Counter
	DeliveryFailures  prometheus.Counter
	QuotaDenials      prometheus.Counter
	ContactsSkipped   prometheus.Counter
	JobsStarted       prometheus.Counter
	JobsFailed        prometheus.Counter
	ActiveJobs        prometheus.Gauge
	JobDuration       prometheus.Histogram
	RecipientsDueSend prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EmailsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_emails_generated_total",
			Help: "Total number of emails drafted by generation jobs",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_emails_sent_total",
			Help: "Total number of emails successfully delivered",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_delivery_failures_total",
			Help: "Total number of failed delivery attempts",
		}),
		QuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_quota_denials_total",
			Help: "Total number of sends denied by the rate governor",
		}),
		ContactsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_contacts_skipped_total",
			Help: "Total number of contacts skipped during generation (invalid or duplicate)",
		}),
		JobsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_jobs_started_total",
			Help: "Total number of batch jobs started",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_jobs_failed_total",
			Help: "Total number of batch jobs that ended in error",
		}),
		ActiveJobs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_active_jobs",
			Help: "Number of batch jobs currently processing",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_job_duration_seconds",
			Help:    "Time batch jobs spend from start to terminal status",
			Buckets: prometheus.DefBuckets,
		}),
		RecipientsDueSend: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_recipients_due_send",
			Help: "Draft emails past their stage due date across all owners",
		}),
	}
}
