package config

import (
	"os"

	"github.com/GeraltShaowen233/VoxelDemo/nav"
	"github.com/GeraltShaowen233/VoxelDemo/raster"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/GeraltShaowen233/VoxelDemo/voxel"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	ErrTypeInvalidConfig = "invalid_config"
)

const (
	RasterizerRecast = "recast"
	RasterizerSample = "sample"
)

// World describes the spheres to build and how to voxelize and search them.
type World struct {
	// Path of the JSON scene voxelized onto the spheres. No geometry is
	// loaded when empty.
	Scene           string  `yaml:"scene"`
	SceneResolution float64 `yaml:"scene_resolution"`

	Spheres      []Sphere     `yaml:"spheres"`
	Voxelization Voxelization `yaml:"voxelization"`
	Pathfinding  Pathfinding  `yaml:"pathfinding"`
}

type Sphere struct {
	Index    int        `yaml:"index"`
	Center   [3]float64 `yaml:"center"`
	Radius   float64    `yaml:"radius"`
	Stride   float64    `yaml:"stride"`
	TileSize int        `yaml:"tile_size"`
}

// Params returns the tessellation params of the sphere.
func (s Sphere) Params() sphere.Params {
	return sphere.Params{
		Index:    s.Index,
		Center:   mgl64.Vec3(s.Center),
		Radius:   s.Radius,
		Stride:   s.Stride,
		TileSize: s.TileSize,
	}
}

type Voxelization struct {
	// Either recast or sample.
	Rasterizer     string `yaml:"rasterizer"`
	MergeThreshold int    `yaml:"merge_threshold"`

	// Zero means one stride.
	CellHeight float64 `yaml:"cell_height"`
	MinHeight  float64 `yaml:"min_height"`
	MaxHeight  float64 `yaml:"max_height"`
}

func (v Voxelization) Params() voxel.Params {
	return voxel.Params{
		CellHeight: v.CellHeight,
		MinHeight:  v.MinHeight,
		MaxHeight:  v.MaxHeight,
	}
}

// NewRasterizer returns the configured rasterizer.
func (v Voxelization) NewRasterizer() (raster.Rasterizer, error) {
	switch v.Rasterizer {
	case RasterizerRecast, "":
		return raster.Recast{MergeThreshold: v.MergeThreshold}, nil

	case RasterizerSample:
		return raster.Sampler{}, nil

	default:
		return nil, errors.New("unknown rasterizer").
			WithType(ErrTypeInvalidConfig).
			WithTag("rasterizer", v.Rasterizer)
	}
}

type Pathfinding struct {
	MaxExpansions int     `yaml:"max_expansions"`
	StepFactor    float64 `yaml:"step_factor"`
	CacheSize     int     `yaml:"cache_size"`
	Seed          uint64  `yaml:"seed"`
}

// DefaultSphere is the sphere built when none is configured.
func DefaultSphere() Sphere {
	return Sphere{
		Radius:   2000,
		Stride:   16,
		TileSize: 2,
	}
}

// Default returns a world made of the default sphere.
func Default() World {
	return World{
		SceneResolution: 64,
		Spheres:         []Sphere{DefaultSphere()},
		Voxelization: Voxelization{
			Rasterizer:     RasterizerRecast,
			MergeThreshold: raster.DefaultMergeThreshold,
			MinHeight:      0,
			MaxHeight:      voxel.DefaultMaxHeight,
		},
		Pathfinding: Pathfinding{
			MaxExpansions: nav.DefaultMaxExpansions,
			StepFactor:    nav.DefaultStepFactor,
			CacheSize:     nav.DefaultCacheSize,
		},
	}
}

// Load reads a world file. Values missing from the file keep their defaults
// and a missing file yields the default world.
func Load(path string) (World, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.New("reading world config failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.New("parsing world config failed").
			WithType(ErrTypeInvalidConfig).
			WithTag("path", path).
			Wrap(err)
	}

	defaults := DefaultSphere()
	for i := range cfg.Spheres {
		s := &cfg.Spheres[i]
		if s.Stride == 0 {
			s.Stride = defaults.Stride
		}
		if s.TileSize == 0 {
			s.TileSize = defaults.TileSize
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.New("invalid world config").
			WithType(ErrTypeInvalidConfig).
			WithTag("path", path).
			Wrap(err)
	}
	return cfg, nil
}

// Validate checks the world is buildable.
func (w World) Validate() error {
	if len(w.Spheres) == 0 {
		return errors.New("no sphere configured").
			WithType(ErrTypeInvalidConfig)
	}

	indices := make(map[int]struct{}, len(w.Spheres))
	for _, s := range w.Spheres {
		if _, ok := indices[s.Index]; ok {
			return errors.New("duplicated sphere index").
				WithType(ErrTypeInvalidConfig).
				WithTag("sphere", s.Index)
		}
		indices[s.Index] = struct{}{}

		if s.Radius <= 0 || s.Stride <= 0 || s.TileSize <= 0 {
			return errors.New("sphere radius, stride and tile size must be positive").
				WithType(ErrTypeInvalidConfig).
				WithTag("sphere", s.Index).
				WithTag("radius", s.Radius).
				WithTag("stride", s.Stride).
				WithTag("tile_size", s.TileSize)
		}
	}

	v := w.Voxelization
	if v.CellHeight < 0 || (v.MaxHeight != 0 && v.MaxHeight <= v.MinHeight) {
		return errors.New("invalid voxelization heights").
			WithType(ErrTypeInvalidConfig).
			WithTag("cell_height", v.CellHeight).
			WithTag("min_height", v.MinHeight).
			WithTag("max_height", v.MaxHeight)
	}
	if _, err := v.NewRasterizer(); err != nil {
		return err
	}

	if w.Pathfinding.MaxExpansions < 0 || w.Pathfinding.StepFactor < 0 {
		return errors.New("pathfinding bounds cannot be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_expansions", w.Pathfinding.MaxExpansions).
			WithTag("step_factor", w.Pathfinding.StepFactor)
	}
	return nil
}
