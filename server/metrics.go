package server

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	formatLabel  = "format"
	errTypeLabel = "error_type"

	unknownFormat = "unknown"
)

var (
	conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxquad_conversions_total",
		Help: "The number of successful model conversions.",
	}, []string{formatLabel})

	conversionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxquad_conversion_errors_total",
		Help: "The number of failed model conversions.",
	}, []string{formatLabel, errTypeLabel})

	quadsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxquad_quads_emitted_total",
		Help: "The number of quads produced by the mesher.",
	})

	conversionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxquad_conversion_latency_seconds",
		Help:    "The time spent decoding, meshing and encoding a model.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
	}, []string{formatLabel})
)

func instrumentConversion(format string, quads int, start time.Time) {
	conversions.With(prometheus.Labels{
		formatLabel: format,
	}).Inc()

	quadsEmitted.Add(float64(quads))

	conversionLatency.With(prometheus.Labels{
		formatLabel: format,
	}).Observe(time.Since(start).Seconds())
}

func instrumentConversionError(format string, err error) {
	conversionErrors.
		With(prometheus.Labels{
			formatLabel:  format,
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}
