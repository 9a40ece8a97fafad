// Package metrics defines the custom Prometheus metrics for the Lumina chat
// API. It is the single source of truth for metric names, labels, and help
// strings; collectors register themselves with the default registry via
// promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lumina"

// RegistrationsTotal counts accepted signup requests (pending record created).
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of pending registrations created.",
	},
)

// OTPVerificationsTotal counts OTP verification attempts.
// Label:
//   - result: "success" or "failure"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// MailDeliveriesTotal counts OTP mail deliveries attempted by the dispatcher.
// Label:
//   - result: "sent" or "failed"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of OTP mail deliveries, by result.",
	},
	[]string{"result"},
)

// MailQueueDepth tracks messages waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", ...)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)

// AIRequestsTotal counts prompt relays to the generative-AI provider.
// Labels:
//   - kind: "chat" or "image"
//   - result: "success" or "failure"
var AIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ai_requests_total",
		Help:      "Total number of AI provider relays, by kind and result.",
	},
	[]string{"kind", "result"},
)

// AIRequestDuration measures end-to-end provider latency per relay.
// Label:
//   - kind: "chat" or "image"
var AIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ai_request_duration_seconds",
		Help:      "Duration of AI provider relays from request to answer.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	},
	[]string{"kind"},
)
