package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mediaStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopec_media_store_operations_total",
			Help: "Media store uploads and deletes by resource kind and outcome",
		},
		[]string{"op", "resource", "outcome"},
	)

	mediaStoreBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopec_media_store_uploaded_bytes_total",
			Help: "Bytes uploaded to the media store by media kind",
		},
		[]string{"kind"},
	)
)
