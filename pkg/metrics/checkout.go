package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records payment-flow and upstream-call outcomes.
type CheckoutMetrics struct {
	upstreamDuration *prometheus.HistogramVec
	upstreamFailure  *prometheus.CounterVec
	paymentOutcome   *prometheus.CounterVec
	couponOutcome    *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream commerce API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	upstreamFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failure",
		Help: "Failed upstream commerce API calls.",
	}, []string{"operation"})
	paymentOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_outcome",
		Help: "Terminal payment attempts by outcome.",
	}, []string{"outcome"})
	couponOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_outcome",
		Help: "Coupon applications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(upstreamDuration, upstreamFailure, paymentOutcome, couponOutcome)
	return &CheckoutMetrics{
		upstreamDuration: upstreamDuration,
		upstreamFailure:  upstreamFailure,
		paymentOutcome:   paymentOutcome,
		couponOutcome:    couponOutcome,
	}
}

// ObserveUpstream records the duration for the named upstream operation.
func (c *CheckoutMetrics) ObserveUpstream(operation string, duration time.Duration) {
	if c == nil || c.upstreamDuration == nil {
		return
	}
	c.upstreamDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncUpstreamFailure increments the failure counter for the named operation.
func (c *CheckoutMetrics) IncUpstreamFailure(operation string) {
	if c == nil || c.upstreamFailure == nil {
		return
	}
	c.upstreamFailure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncPaymentOutcome counts a terminal payment attempt (confirmed/failed).
func (c *CheckoutMetrics) IncPaymentOutcome(outcome string) {
	if c == nil || c.paymentOutcome == nil {
		return
	}
	c.paymentOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCouponOutcome counts a coupon application (applied/rejected).
func (c *CheckoutMetrics) IncCouponOutcome(outcome string) {
	if c == nil || c.couponOutcome == nil {
		return
	}
	c.couponOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
