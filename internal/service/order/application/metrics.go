package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed.",
	})

	orderPlaceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_place_failures_total",
		Help: "Order placement failures by reason.",
	}, []string{"reason"})

	statusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"to"})
)
