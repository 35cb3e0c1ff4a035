package world

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/GeraltShaowen233/VoxelDemo/nav"
	"github.com/GeraltShaowen233/VoxelDemo/raster"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/scene"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/GeraltShaowen233/VoxelDemo/voxel"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeUnknownSphere = "unknown_sphere"
)

// Options configure how a world voxelizes and searches its spheres.
type Options struct {
	// The rasterizer used to voxelize tiles. Defaults to recast.
	Rasterizer raster.Rasterizer

	Voxel voxel.Params

	MaxExpansions int
	StepFactor    float64
	Reopen        bool

	// The number of cached paths. The cache is skipped when DisableCache is
	// set.
	CacheSize    int
	DisableCache bool

	// Seeds the random span sampler.
	Seed uint64
}

// World owns the spheres, their spans and the geometry they are voxelized
// from. Building and voxelizing are exclusive, queries run concurrently.
type World struct {
	mutex     sync.RWMutex
	registry  *registry.Registry
	spheres   map[int]*sphere.Sphere
	voxelized map[int]bool
	scene     scene.Source
	voxelizer voxel.Voxelizer
	finder    nav.Finder
	cache     *nav.Cache

	randMutex sync.Mutex
	rand      *rand.Rand
}

// New creates an empty world voxelizing geometry from src.
func New(src scene.Source, opts Options) *World {
	if src == nil {
		src = scene.NewScene(0)
	}

	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		rasterizer = raster.Recast{}
	}

	reg := registry.New()

	var finder nav.Finder = &nav.AStar{
		Registry:      reg,
		MaxExpansions: opts.MaxExpansions,
		StepFactor:    opts.StepFactor,
		Reopen:        opts.Reopen,
	}
	finder = nav.FinderWithLogs(finder)
	finder = nav.FinderWithMetrics(finder)

	var cache *nav.Cache
	if !opts.DisableCache {
		cache = nav.FinderWithCache(finder, opts.CacheSize)
		finder = cache
	}

	return &World{
		registry:  reg,
		spheres:   make(map[int]*sphere.Sphere),
		voxelized: make(map[int]bool),
		scene:     src,
		voxelizer: voxel.Voxelizer{
			Registry:   reg,
			Rasterizer: rasterizer,
			Params:     opts.Voxel,
		},
		finder: finder,
		cache:  cache,
		rand:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// BuildSphere tessellates a sphere and registers its columns. Its spans
// stay empty until it is voxelized.
func (w *World) BuildSphere(p sphere.Params) (*sphere.Sphere, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, err := sphere.Build(w.registry, p)
	if err != nil {
		return nil, err
	}
	w.spheres[s.Index] = s

	instrumentSphereGauges(s, 0)
	return s, nil
}

// Voxelize fills every column of a sphere with the spans of the scene.
func (w *World) Voxelize(index int) (voxel.Summary, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, err := w.sphere(index)
	if err != nil {
		return voxel.Summary{}, err
	}

	sum, err := w.voxelizer.VoxelizeSphere(s, w.scene)
	w.purgePaths()
	instrumentSphereGauges(s, w.registry.SpanCount(s.Range))
	if err != nil {
		return sum, errors.New("voxelizing sphere failed").
			WithTag("sphere", index).
			Wrap(err)
	}

	w.voxelized[index] = true
	return sum, nil
}

// RevoxelizeTile voxelizes a single tile again, typically after the scene
// changed around it. Cached paths are dropped.
func (w *World) RevoxelizeTile(index, tile int) (voxel.Summary, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, err := w.sphere(index)
	if err != nil {
		return voxel.Summary{}, err
	}

	start := time.Now()
	sum, err := w.voxelizer.VoxelizeTile(s, tile, w.scene)
	if err != nil {
		return sum, err
	}
	sum.Duration = time.Since(start)

	w.purgePaths()
	instrumentSphereGauges(s, w.registry.SpanCount(s.Range))

	logs.WithTag("sphere", index).
		WithTag("tile", tile).
		WithTag("instances", sum.Instances).
		WithTag("spans", sum.Spans).
		WithTag("duration", sum.Duration.String()).
		Info("tile voxelized")
	return sum, nil
}

// Ready reports whether at least one sphere exists and every sphere has been
// voxelized.
func (w *World) Ready() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if len(w.spheres) == 0 {
		return false
	}
	for index := range w.spheres {
		if !w.voxelized[index] {
			return false
		}
	}
	return true
}

func (w *World) Sphere(index int) (*sphere.Sphere, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, ok := w.spheres[index]
	return s, ok
}

// Spheres returns the built spheres ordered by index.
func (w *World) Spheres() []*sphere.Sphere {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	spheres := make([]*sphere.Sphere, 0, len(w.spheres))
	for _, s := range w.spheres {
		spheres = append(spheres, s)
	}
	sort.Slice(spheres, func(i, j int) bool {
		return spheres[i].Index < spheres[j].Index
	})
	return spheres
}

// SpanCount returns the number of spans held by a sphere.
func (w *World) SpanCount(index int) (int, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, err := w.sphere(index)
	if err != nil {
		return 0, err
	}
	return w.registry.SpanCount(s.Range), nil
}

// Locate resolves where a world point falls on a sphere.
func (w *World) Locate(index int, p mgl64.Vec3) (sphere.Location, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, err := w.sphere(index)
	if err != nil {
		return sphere.Location{}, err
	}
	return s.Locate(p), nil
}

// FindPath searches a walkable route between two spans of a sphere.
func (w *World) FindPath(index int, from, to registry.SpanRef) (nav.Path, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, err := w.sphere(index)
	if err != nil {
		return nav.Path{}, err
	}
	return w.finder.FindPath(s, from, to)
}

// RandomSpan picks a random span of a sphere. It returns false when the
// sphere holds no span.
func (w *World) RandomSpan(index int) (registry.SpanRef, bool, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, err := w.sphere(index)
	if err != nil {
		return registry.SpanRef{}, false, err
	}

	w.randMutex.Lock()
	defer w.randMutex.Unlock()

	ref, ok := w.registry.RandomSpan(w.rand, s.Range)
	return ref, ok, nil
}

// RandomSpanFrom is RandomSpan drawing from the given source. The source is
// not shared with other callers.
func (w *World) RandomSpanFrom(index int, rnd *rand.Rand) (registry.SpanRef, bool, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, err := w.sphere(index)
	if err != nil {
		return registry.SpanRef{}, false, err
	}

	ref, ok := w.registry.RandomSpan(rnd, s.Range)
	return ref, ok, nil
}

func (w *World) Span(ref registry.SpanRef) (registry.Span, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.registry.Span(ref)
}

// SurfacePoint returns the world position of the top of a span.
func (w *World) SurfacePoint(index int, ref registry.SpanRef) (mgl64.Vec3, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	s, ok := w.spheres[index]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return nav.SurfacePoint(w.registry, s, ref)
}

// CachedPaths returns the number of cached paths.
func (w *World) CachedPaths() int {
	if w.cache == nil {
		return 0
	}
	return w.cache.Len()
}

func (w *World) sphere(index int) (*sphere.Sphere, error) {
	s, ok := w.spheres[index]
	if !ok {
		return nil, errors.New("sphere not found").
			WithType(ErrTypeUnknownSphere).
			WithTag("sphere", index)
	}
	return s, nil
}

func (w *World) purgePaths() {
	if w.cache != nil {
		w.cache.Purge()
	}
}
