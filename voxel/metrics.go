package voxel

import (
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sphereLabel  = "sphere"
	errTypeLabel = "error_type"
)

var (
	voxelizedTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelized_tiles",
		Help: "The number of voxelized tiles.",
	}, []string{sphereLabel})

	voxelizedSpans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelized_spans",
		Help: "The number of spans produced by voxelization.",
	}, []string{sphereLabel})

	voxelizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxelize_sphere_seconds",
		Help:    "The time taken to voxelize a whole sphere.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{sphereLabel})

	voxelizeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelize_errors",
		Help: "The errors that occured while voxelizing.",
	}, []string{sphereLabel, errTypeLabel})
)

func instrumentVoxelizeSphere(sphere int, sum Summary) {
	labels := prometheus.Labels{sphereLabel: strconv.Itoa(sphere)}

	voxelizedTiles.With(labels).Add(float64(sum.Tiles))
	voxelizedSpans.With(labels).Add(float64(sum.Spans))
	voxelizeDuration.With(labels).Observe(sum.Duration.Seconds())
}

func instrumentVoxelizeError(sphere int, err error) {
	voxelizeErrors.
		With(prometheus.Labels{
			sphereLabel:  strconv.Itoa(sphere),
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}
