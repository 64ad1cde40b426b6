package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentOrderTotal counts gateway order creation outcomes.
	PaymentOrderTotal *prometheus.CounterVec
	// PaymentVerifyTotal counts payment verification outcomes.
	PaymentVerifyTotal *prometheus.CounterVec
	// CheckoutFinalizeTotal counts checkout finalisation outcomes.
	CheckoutFinalizeTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentOrderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_order_total",
			Help:      "Count of gateway order creation outcomes.",
		}, []string{"result"})
		PaymentVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verify_total",
			Help:      "Count of payment verification outcomes.",
		}, []string{"result"})
		CheckoutFinalizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_finalize_total",
			Help:      "Count of checkout finalisation outcomes.",
		}, []string{"result"})

		mustRegisterCounterVec(reg, &PaymentOrderTotal)
		mustRegisterCounterVec(reg, &PaymentVerifyTotal)
		mustRegisterCounterVec(reg, &CheckoutFinalizeTotal)
	})
}

func mustRegisterCounterVec(reg prometheus.Registerer, vec **prometheus.CounterVec) {
	if err := reg.Register(*vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				*vec = existing
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
