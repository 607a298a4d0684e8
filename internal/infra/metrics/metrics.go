package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// CouponMetrics implements commands.Metrics.
type CouponMetrics struct {
	issued             *prometheus.CounterVec
	notificationFailed prometheus.Counter
	redemptions        *prometheus.CounterVec
}

func NewCouponMetrics(reg prometheus.Registerer) *CouponMetrics {
	factory := promauto.With(reg)
	return &CouponMetrics{
		issued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupons_issued_total",
				Help: "Coupons appended to the ledger, by attempts needed to find a free code",
			},
			[]string{"attempts"},
		),
		notificationFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coupon_notifications_failed_total",
				Help: "Issued coupons whose email could not be delivered",
			},
		),
		redemptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupon_redemptions_total",
				Help: "Redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *CouponMetrics) CouponIssued(attempts int) {
	m.issued.WithLabelValues(strconv.Itoa(attempts)).Inc()
}

func (m *CouponMetrics) NotificationFailed() {
	m.notificationFailed.Inc()
}

func (m *CouponMetrics) Redemption(outcome string) {
	m.redemptions.WithLabelValues(outcome).Inc()
}
