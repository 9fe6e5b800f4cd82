package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deductionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_deductions_total",
		Help: "Bulk stock deduction attempts by outcome.",
	}, []string{"outcome"})

	deductionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_deduction_version_conflicts_total",
		Help: "Conditioned writes that lost a race and had to be retried.",
	})
)
