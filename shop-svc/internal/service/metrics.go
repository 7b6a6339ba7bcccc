package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OrdersSubmitted    prometheus.Counter
	MenuParseFallbacks prometheus.Counter
}

// NewMetrics registers the counters on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartorder_orders_submitted_total",
			Help: "Orders accepted from customers.",
		}),
		MenuParseFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartorder_menu_parse_fallbacks_total",
			Help: "Menu imports that used the placeholder menu.",
		}),
	}
}
