package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteComputeTotal counts quote computation outcomes per pricing model.
	QuoteComputeTotal *prometheus.CounterVec
	// QuoteComputeDuration records quote computation latency in milliseconds.
	QuoteComputeDuration *prometheus.HistogramVec
	// BookingTotal counts booking lifecycle transitions.
	BookingTotal *prometheus.CounterVec
	// CouponApplyTotal counts coupon resolution outcomes.
	CouponApplyTotal *prometheus.CounterVec
	// NotifyDeliveriesTotal tracks notification dispatch outcomes.
	NotifyDeliveriesTotal *prometheus.CounterVec
	// FormCacheHits counts published form cache hits.
	FormCacheHits prometheus.Counter
	// FormCacheMisses counts published form cache misses.
	FormCacheMisses prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_compute_total",
			Help:      "Count of quote computations by pricing model and result.",
		}, []string{"model", "result"})
		QuoteComputeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_compute_duration_ms",
			Help:      "Quote computation latency in milliseconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}, []string{"model"})
		BookingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_total",
			Help:      "Count of booking lifecycle events by status.",
		}, []string{"status"})
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon resolution outcomes.",
		}, []string{"result"})
		NotifyDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_deliveries_total",
			Help:      "Count of notification delivery outcomes.",
		}, []string{"channel", "result"})
		FormCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_cache_hits_total",
			Help:      "Number of published form cache hits.",
		})
		FormCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_cache_misses_total",
			Help:      "Number of published form cache misses.",
		})

		mustRegisterCollector(reg, QuoteComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteComputeTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteComputeDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QuoteComputeDuration = v
			}
		})
		mustRegisterCollector(reg, BookingTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingTotal = v
			}
		})
		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
		mustRegisterCollector(reg, NotifyDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotifyDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, FormCacheHits, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				FormCacheHits = v
			}
		})
		mustRegisterCollector(reg, FormCacheMisses, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				FormCacheMisses = v
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
