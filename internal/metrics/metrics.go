// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "affiliate"

// Metrics groups the collectors for the accrual, auth and notification
// paths. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SalesRecorded    *prometheus.CounterVec
	CommissionAmount *prometheus.CounterVec
	ClicksRecorded   prometheus.Counter
	TierUpgrades     *prometheus.CounterVec
	Logins           *prometheus.CounterVec
	Registrations    prometheus.Counter
	SessionsPurged   prometheus.Counter
	Notifications    *prometheus.CounterVec
	AccrualDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SalesRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sales_recorded_total",
				Help:      "Sales appended to the ledger, by tier at time of sale.",
			},
			[]string{"tier"},
		),
		CommissionAmount: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commission_amount_total",
				Help:      "Commission credited, in currency units, by tier at time of sale.",
			},
			[]string{"tier"},
		),
		ClicksRecorded: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clicks_recorded_total",
				Help:      "Referral clicks appended to the ledger.",
			},
		),
		TierUpgrades: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tier_upgrades_total",
				Help:      "Tier promotions applied.",
			},
			[]string{"from", "to"},
		),
		Logins: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by result.",
			},
			[]string{"result"},
		),
		Registrations: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Affiliate applications registered.",
			},
		),
		SessionsPurged: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_purged_total",
				Help:      "Expired sessions deleted.",
			},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification dispatch outcomes by kind.",
			},
			[]string{"kind", "result"},
		),
		AccrualDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "accrual_duration_seconds",
				Help:      "Duration of accrual operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatherer: gatherer,
	}
}

// NewDefault registers on the process-wide default registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSale(tierName string, commission float64) {
	if m == nil {
		return
	}
	m.SalesRecorded.WithLabelValues(tierName).Inc()
	m.CommissionAmount.WithLabelValues(tierName).Add(commission)
}

func (m *Metrics) ObserveClick() {
	if m == nil {
		return
	}
	m.ClicksRecorded.Inc()
}

func (m *Metrics) ObserveTierUpgrade(from, to string) {
	if m == nil {
		return
	}
	m.TierUpgrades.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) ObservePurge(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsPurged.Add(float64(n))
}

func (m *Metrics) ObserveNotification(kind, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveAccrual(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.AccrualDuration.WithLabelValues(operation).Observe(seconds)
}
