package nav

import (
	"strconv"
	"time"

	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sphereLabel  = "sphere"
	resultLabel  = "result"
	errTypeLabel = "error_type"

	resultFound    = "found"
	resultNotFound = "not_found"
	resultAborted  = "aborted"
)

var (
	pathQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "path_queries",
		Help: "The number of path queries.",
	}, []string{
		sphereLabel,
		resultLabel,
	})

	pathQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "path_query_errors",
		Help: "The errors that occured while searching paths.",
	}, []string{
		sphereLabel,
		errTypeLabel,
	})

	pathQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "path_query_latency",
		Help: "The time to search a path.",
	}, []string{
		sphereLabel,
	})

	pathExpansions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "path_expansions",
		Help:    "The number of nodes expanded by a path search.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 9),
	}, []string{
		sphereLabel,
	})

	pathCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "path_cache_lookups",
		Help: "The number of path cache lookups.",
	}, []string{
		resultLabel,
	})
)

// FinderWithMetrics records prometheus metrics for every path query.
func FinderWithMetrics(f Finder) Finder {
	return &finderWithMetrics{
		Finder: f,
	}
}

type finderWithMetrics struct {
	Finder
}

func (f *finderWithMetrics) FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error) {
	start := time.Now()
	sphereIndex := strconv.Itoa(s.Index)

	path, err := f.Finder.FindPath(s, from, to)
	if err != nil {
		pathQueryErrors.
			With(prometheus.Labels{
				sphereLabel:  sphereIndex,
				errTypeLabel: errors.Type(err),
			}).
			Inc()
		return path, err
	}

	result := resultFound
	switch {
	case path.Aborted:
		result = resultAborted

	case !path.Found():
		result = resultNotFound
	}

	pathQueries.
		With(prometheus.Labels{
			sphereLabel: sphereIndex,
			resultLabel: result,
		}).
		Inc()

	pathQueryLatency.
		With(prometheus.Labels{sphereLabel: sphereIndex}).
		Observe(time.Since(start).Seconds())

	pathExpansions.
		With(prometheus.Labels{sphereLabel: sphereIndex}).
		Observe(float64(path.Expansions))

	return path, nil
}

func instrumentCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	pathCacheLookups.
		With(prometheus.Labels{resultLabel: result}).
		Inc()
}
