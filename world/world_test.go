package world

import (
	"sync"
	"testing"

	"github.com/GeraltShaowen233/VoxelDemo/raster"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/scene"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

var testParams = sphere.Params{
	Center:   mgl64.Vec3{0, 50, 0},
	Radius:   100,
	Stride:   4,
	TileSize: 4,
}

// groundOn places a flat square over a tile, elevation above its shell.
func groundOn(s *sphere.Sphere, tile *sphere.Tile, elevation, half float64) *scene.Instance {
	frame := s.Frame(tile)
	mesh := &scene.Mesh{
		Name: "ground",
		Vertices: []mgl64.Vec3{
			frame.ToWorld(mgl64.Vec3{-half, elevation, -half}),
			frame.ToWorld(mgl64.Vec3{-half, elevation, half}),
			frame.ToWorld(mgl64.Vec3{half, elevation, half}),
			frame.ToWorld(mgl64.Vec3{half, elevation, -half}),
		},
		Indices: []int{0, 1, 2, 0, 2, 3},
	}
	return scene.NewInstance("ground", mesh, mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
}

func newTestWorld(t *testing.T, opts Options) (*World, *scene.Scene, *sphere.Sphere, *sphere.Tile) {
	src := scene.NewScene(16)
	if opts.Rasterizer == nil {
		opts.Rasterizer = raster.Sampler{}
	}
	opts.Voxel.CellHeight = 1

	w := New(src, opts)
	s, err := w.BuildSphere(testParams)
	require.NoError(t, err)

	tile := &s.Bands[len(s.Bands)/2][5]
	src.Add(groundOn(s, tile, 10.3, 7.9))
	return w, src, s, tile
}

func TestWorldBuildSphere(t *testing.T) {
	w := New(nil, Options{})
	require.False(t, w.Ready())

	s, err := w.BuildSphere(testParams)
	require.NoError(t, err)
	require.Equal(t, 0, s.Index)

	_, err = w.BuildSphere(testParams)
	require.Error(t, err)
	require.Equal(t, sphere.ErrTypeAlreadyBuilt, errors.Type(err))

	p := testParams
	p.Index = 3
	_, err = w.BuildSphere(p)
	require.NoError(t, err)

	p.Index = 1
	_, err = w.BuildSphere(p)
	require.NoError(t, err)

	var indices []int
	for _, s := range w.Spheres() {
		indices = append(indices, s.Index)
	}
	require.Equal(t, []int{0, 1, 3}, indices)

	got, ok := w.Sphere(3)
	require.True(t, ok)
	require.Equal(t, 3, got.Index)

	_, ok = w.Sphere(2)
	require.False(t, ok)

	count, err := w.SpanCount(0)
	require.NoError(t, err)
	require.Zero(t, count)

	require.False(t, w.Ready())
}

func TestWorldUnknownSphere(t *testing.T) {
	w := New(nil, Options{})

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "voxelize",
			call: func() error {
				_, err := w.Voxelize(7)
				return err
			},
		},
		{
			name: "revoxelize tile",
			call: func() error {
				_, err := w.RevoxelizeTile(7, 0)
				return err
			},
		},
		{
			name: "locate",
			call: func() error {
				_, err := w.Locate(7, mgl64.Vec3{})
				return err
			},
		},
		{
			name: "find path",
			call: func() error {
				_, err := w.FindPath(7, registry.SpanRef{}, registry.SpanRef{})
				return err
			},
		},
		{
			name: "random span",
			call: func() error {
				_, _, err := w.RandomSpan(7)
				return err
			},
		},
		{
			name: "span count",
			call: func() error {
				_, err := w.SpanCount(7)
				return err
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.call()
			require.Error(t, err)
			require.Equal(t, ErrTypeUnknownSphere, errors.Type(err))
		})
	}

	_, ok := w.SurfacePoint(7, registry.SpanRef{})
	require.False(t, ok)
}

func TestWorldQueries(t *testing.T) {
	w, _, s, tile := newTestWorld(t, Options{Seed: 42})

	_, ok, err := w.RandomSpan(s.Index)
	require.NoError(t, err)
	require.False(t, ok)

	sum, err := w.Voxelize(s.Index)
	require.NoError(t, err)
	require.Equal(t, s.TileCount(), sum.Tiles)
	require.GreaterOrEqual(t, sum.Spans, s.TileSize*s.TileSize)
	require.True(t, w.Ready())

	count, err := w.SpanCount(s.Index)
	require.NoError(t, err)
	require.Equal(t, sum.Spans, count)

	t.Run("locate", func(t *testing.T) {
		loc, err := w.Locate(s.Index, tile.Center)
		require.NoError(t, err)
		require.Equal(t, tile.Index, loc.Tile)
		require.Equal(t, s.Range.Begin+loc.Column, loc.Global)
	})

	t.Run("random span", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			ref, ok, err := w.RandomSpan(s.Index)
			require.NoError(t, err)
			require.True(t, ok)

			span, ok := w.Span(ref)
			require.True(t, ok)
			require.Equal(t, ref.Column, span.Column)
		}
	})

	begin, _ := s.TileColumns(tile.Index)
	from := registry.SpanRef{Column: begin + 1}
	to := registry.SpanRef{Column: begin + 1 + 2*s.TileSize}

	t.Run("find path", func(t *testing.T) {
		p, err := w.FindPath(s.Index, from, to)
		require.NoError(t, err)
		require.True(t, p.Found())
		require.Equal(t, from, p.Spans[0])
		require.Equal(t, to, p.Spans[len(p.Spans)-1])
		require.Equal(t, 1, w.CachedPaths())

		again, err := w.FindPath(s.Index, from, to)
		require.NoError(t, err)
		require.Equal(t, p, again)
	})

	t.Run("surface point", func(t *testing.T) {
		p, ok := w.SurfacePoint(s.Index, from)
		require.True(t, ok)

		span, _ := w.Span(from)
		center := s.Center
		require.InDelta(t, s.Radius+span.Top, p.Sub(center).Len(), 1)
	})

	t.Run("revoxelize purges paths", func(t *testing.T) {
		sum, err := w.RevoxelizeTile(s.Index, tile.Index)
		require.NoError(t, err)
		require.Equal(t, 1, sum.Tiles)
		require.Equal(t, s.TileSize*s.TileSize, sum.Spans)
		require.Zero(t, w.CachedPaths())

		count, err := w.SpanCount(s.Index)
		require.NoError(t, err)
		require.Equal(t, sum.Spans+countOutside(w, s, tile), count)
	})

	t.Run("revoxelize unknown tile", func(t *testing.T) {
		_, err := w.RevoxelizeTile(s.Index, s.TileCount())
		require.Error(t, err)
	})
}

func countOutside(w *World, s *sphere.Sphere, tile *sphere.Tile) int {
	begin, end := s.TileColumns(tile.Index)

	count := 0
	for i := s.Range.Begin; i < s.Range.End(); i++ {
		if i >= begin && i < end {
			continue
		}
		count += len(w.registry.Column(i).Spans)
	}
	return count
}

func TestWorldDisableCache(t *testing.T) {
	w, _, s, tile := newTestWorld(t, Options{DisableCache: true})
	_, err := w.Voxelize(s.Index)
	require.NoError(t, err)

	begin, _ := s.TileColumns(tile.Index)
	p, err := w.FindPath(s.Index,
		registry.SpanRef{Column: begin},
		registry.SpanRef{Column: begin + 1},
	)
	require.NoError(t, err)
	require.True(t, p.Found())
	require.Zero(t, w.CachedPaths())
}

func TestWorldConcurrentQueries(t *testing.T) {
	w, _, s, tile := newTestWorld(t, Options{})
	_, err := w.Voxelize(s.Index)
	require.NoError(t, err)

	begin, end := s.TileColumns(tile.Index)

	var wg sync.WaitGroup
	for i := begin; i < end; i++ {
		wg.Add(1)
		go func(column int) {
			defer wg.Done()

			p, err := w.FindPath(s.Index,
				registry.SpanRef{Column: begin},
				registry.SpanRef{Column: column},
			)
			require.NoError(t, err)
			require.True(t, p.Found())
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		_, err := w.RevoxelizeTile(s.Index, tile.Index)
		require.NoError(t, err)
	}()
	wg.Wait()
}
