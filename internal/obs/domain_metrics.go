package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts applied cart mutations by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
	// CartsActive tracks the number of live session carts.
	CartsActive prometheus.Gauge
	// SignInTotal counts sign-in attempts by outcome.
	SignInTotal *prometheus.CounterVec
	// NotificationsCreatedTotal counts notifications appended to user feeds.
	NotificationsCreatedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"})
		CartsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "carts_active",
			Help:      "Number of session carts currently held in memory.",
		})
		SignInTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_total",
			Help:      "Count of sign-in attempts by result.",
		}, []string{"result"})
		NotificationsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Count of notifications appended to user feeds by kind.",
		}, []string{"kind"})

		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, CartsActive, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CartsActive = v
			}
		})
		mustRegisterCollector(reg, SignInTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SignInTotal = v
			}
		})
		mustRegisterCollector(reg, NotificationsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotificationsCreatedTotal = v
			}
		})
	})
}

// RecordCartMutation increments the cart mutation counter when registered.
func RecordCartMutation(op, result string) {
	if CartMutationsTotal == nil {
		return
	}
	CartMutationsTotal.WithLabelValues(op, result).Inc()
}

// SetCartsActive updates the live cart gauge when registered.
func SetCartsActive(n int) {
	if CartsActive == nil {
		return
	}
	CartsActive.Set(float64(n))
}

// RecordSignIn increments the sign-in counter when registered.
func RecordSignIn(result string) {
	if SignInTotal == nil {
		return
	}
	SignInTotal.WithLabelValues(result).Inc()
}

// RecordNotification increments the notification counter when registered.
func RecordNotification(kind string) {
	if NotificationsCreatedTotal == nil {
		return
	}
	NotificationsCreatedTotal.WithLabelValues(kind).Inc()
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
