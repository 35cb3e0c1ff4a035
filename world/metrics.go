package world

import (
	"strconv"

	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sphereLabel = "sphere"
)

var (
	sphereTiles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sphere_tiles",
		Help: "The number of tiles of a sphere.",
	}, []string{sphereLabel})

	sphereColumns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sphere_columns",
		Help: "The number of columns of a sphere.",
	}, []string{sphereLabel})

	sphereSpans = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sphere_spans",
		Help: "The number of walkable spans of a sphere.",
	}, []string{sphereLabel})
)

func instrumentSphereGauges(s *sphere.Sphere, spans int) {
	labels := prometheus.Labels{sphereLabel: strconv.Itoa(s.Index)}

	sphereTiles.With(labels).Set(float64(s.TileCount()))
	sphereColumns.With(labels).Set(float64(s.ColumnCount()))
	sphereSpans.With(labels).Set(float64(spans))
}
