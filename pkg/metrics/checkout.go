package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aurevo"

// CheckoutMetrics records order submission and cart activity.
type CheckoutMetrics struct {
	attemptDuration *prometheus.HistogramVec
	attempts        *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	breakerState    prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attemptDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_submit_attempt_duration_seconds",
		Help:      "Duration of single order submission attempts in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"result"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_submit_attempts_total",
		Help:      "Order submission attempts by result.",
	}, []string{"result"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_submissions_total",
		Help:      "Terminal order submission outcomes.",
	}, []string{"outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_rejections_total",
		Help:      "Checkouts rejected before reaching the network.",
	}, []string{"reason"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})
	breakerState := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "order_endpoint_breaker_state",
		Help:      "Circuit breaker state for the order endpoint (0 closed, 1 half-open, 2 open).",
	})
	reg.MustRegister(attemptDuration, attempts, outcomes, rejections, cartMutations, breakerState)
	return &CheckoutMetrics{
		attemptDuration: attemptDuration,
		attempts:        attempts,
		outcomes:        outcomes,
		rejections:      rejections,
		cartMutations:   cartMutations,
		breakerState:    breakerState,
	}
}

// ObserveAttempt records one submission attempt.
func (c *CheckoutMetrics) ObserveAttempt(ok bool, duration time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	result := resultLabel(ok)
	c.attempts.WithLabelValues(result).Inc()
	c.attemptDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncOutcome increments the terminal outcome counter.
func (c *CheckoutMetrics) IncOutcome(success bool) {
	if c == nil || c.outcomes == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.outcomes.WithLabelValues(outcome).Inc()
}

// IncRejection counts a checkout stopped before submission.
func (c *CheckoutMetrics) IncRejection(reason string) {
	if c == nil || c.rejections == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCartMutation counts a persisted cart mutation.
func (c *CheckoutMetrics) IncCartMutation(op string) {
	if c == nil || c.cartMutations == nil {
		return
	}
	c.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// SetBreakerState publishes the numeric breaker state.
func (c *CheckoutMetrics) SetBreakerState(state int) {
	if c == nil || c.breakerState == nil {
		return
	}
	c.breakerState.Set(float64(state))
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
