package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkouts by outcome (ok, product_not_found, error).
	CheckoutTotal *prometheus.CounterVec
	// DiscountsAppliedTotal counts discounts emitted on receipts by rule kind.
	DiscountsAppliedTotal *prometheus.CounterVec
	// DiscountAmountTotal sums the absolute value of granted discounts.
	DiscountAmountTotal prometheus.Counter
	// CheckoutLines observes the number of distinct products per checkout.
	CheckoutLines prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers checkout collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkouts by outcome.",
		}, []string{"result"})
		DiscountsAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_applied_total",
			Help:      "Count of discounts printed on receipts by rule kind.",
		}, []string{"kind"})
		DiscountAmountTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_amount_total",
			Help:      "Sum of granted discounts in store currency.",
		})
		CheckoutLines = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_lines",
			Help:      "Distinct products per checkout.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountsAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountsAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountAmountTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DiscountAmountTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutLines, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutLines = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
