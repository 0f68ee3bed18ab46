package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repairSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopec_repair_submissions_total",
			Help: "Repair request submissions by outcome",
		},
		[]string{"outcome"},
	)

	mediaCleanups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopec_media_cleanup_total",
			Help: "Compensating and cascading media deletions by outcome",
		},
		[]string{"reason", "outcome"},
	)
)
