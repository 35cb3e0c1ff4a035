package voxel

import (
	"time"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
	"github.com/GeraltShaowen233/VoxelDemo/raster"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/scene"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeRasterizationFailed = raster.ErrTypeRasterizationFailed
	ErrTypeUnknownTile         = "unknown_tile"
)

// DefaultMaxHeight is the top of the voxelized slab above the sphere shell
// when none is configured.
const DefaultMaxHeight = 1000

// Params are the vertical voxelization parameters. Heights are measured
// along the tile normal from the sphere shell.
type Params struct {
	CellHeight float64
	MinHeight  float64
	MaxHeight  float64
}

// For returns the params with unset values defaulted for the given sphere.
func (p Params) For(s *sphere.Sphere) Params {
	if p.CellHeight <= 0 {
		p.CellHeight = s.Stride
	}
	if p.MaxHeight <= p.MinHeight {
		p.MaxHeight = p.MinHeight + DefaultMaxHeight
	}
	return p
}

// Summary describes a voxelization run.
type Summary struct {
	Tiles     int
	Instances int
	Triangles int
	Spans     int
	Duration  time.Duration
}

func (s *Summary) add(o Summary) {
	s.Tiles += o.Tiles
	s.Instances += o.Instances
	s.Triangles += o.Triangles
	s.Spans += o.Spans
}

// Voxelizer fills sphere columns with the spans of the geometry placed
// around them.
type Voxelizer struct {
	Registry   *registry.Registry
	Rasterizer raster.Rasterizer
	Params     Params
}

// VoxelizeSphere voxelizes every tile of a sphere, band after band.
func (v *Voxelizer) VoxelizeSphere(s *sphere.Sphere, src scene.Source) (Summary, error) {
	start := time.Now()

	var sum Summary
	for _, band := range s.Bands {
		for _, t := range band {
			tileSum, err := v.VoxelizeTile(s, t.Index, src)
			if err != nil {
				instrumentVoxelizeError(s.Index, err)
				return sum, err
			}
			sum.add(tileSum)
		}
	}
	sum.Duration = time.Since(start)

	instrumentVoxelizeSphere(s.Index, sum)
	logs.WithTag("sphere", s.Index).
		WithTag("sphere_id", s.ID).
		WithTag("tiles", humanize.Comma(int64(sum.Tiles))).
		WithTag("instances", humanize.Comma(int64(sum.Instances))).
		WithTag("triangles", humanize.Comma(int64(sum.Triangles))).
		WithTag("spans", humanize.Comma(int64(sum.Spans))).
		WithTag("duration", sum.Duration.String()).
		Info("sphere voxelized")
	return sum, nil
}

// VoxelizeTile replaces the spans of one tile with the ones of the geometry
// currently overlapping it. Other tiles are left untouched.
func (v *Voxelizer) VoxelizeTile(s *sphere.Sphere, tile int, src scene.Source) (Summary, error) {
	t := s.TileByIndex(tile)
	if t == nil {
		return Summary{}, errors.New("tile not found").
			WithType(ErrTypeUnknownTile).
			WithTag("sphere", s.Index).
			WithTag("tile", tile)
	}

	params := v.Params.For(s)
	v.Registry.ClearTile(s.Range, tile, s.TileSize)

	sum := Summary{Tiles: 1}
	instances := src.Query(TileBounds(s, t, params))
	if len(instances) == 0 {
		return sum, nil
	}

	frame := s.Frame(t)
	soups := make([]raster.Soup, 0, len(instances))
	for _, i := range instances {
		soup := toSoup(frame, i)
		soups = append(soups, soup)
		sum.Instances++
		sum.Triangles += soup.TriangleCount()
	}

	half := s.Footprint() / 2
	stacks, err := v.Rasterizer.Rasterize(raster.Grid{
		Width:      s.TileSize,
		Height:     s.TileSize,
		Min:        mgl64.Vec3{-half, params.MinHeight, -half},
		Max:        mgl64.Vec3{half, params.MaxHeight, half},
		CellSize:   s.Stride,
		CellHeight: params.CellHeight,
	}, soups)
	if err != nil {
		return sum, errors.New("rasterizing tile failed").
			WithType(ErrTypeRasterizationFailed).
			WithTag("sphere", s.Index).
			WithTag("tile", tile).
			Wrap(err)
	}

	begin, _ := s.TileColumns(tile)
	for x := 0; x < s.TileSize; x++ {
		for z := 0; z < s.TileSize; z++ {
			column := begin + x*s.TileSize + z

			for _, i := range stacks.At(x, z) {
				v.Registry.AppendSpan(
					column,
					float64(i.Min)*params.CellHeight+params.MinHeight,
					float64(i.Max)*params.CellHeight+params.MinHeight,
				)
				sum.Spans++
			}
		}
	}
	return sum, nil
}

// TileBounds returns the world box holding the tile footprint extruded along
// the tile normal from the minimum to the maximum height.
func TileBounds(s *sphere.Sphere, t *sphere.Tile, p Params) geom.AABB {
	frame := s.Frame(t)
	half := s.Footprint() / 2

	b := geom.EmptyAABB()
	for _, u := range [2]float64{-half, half} {
		for _, h := range [2]float64{p.MinHeight, p.MaxHeight} {
			for _, w := range [2]float64{-half, half} {
				b = b.Extend(frame.ToWorld(mgl64.Vec3{u, h, w}))
			}
		}
	}
	return b
}

func toSoup(frame geom.Frame, i *scene.Instance) raster.Soup {
	vertices := i.WorldVertices()
	flat := make([]float64, 0, len(vertices)*3)
	for _, v := range vertices {
		l := frame.ToLocal(v)
		flat = append(flat, l[0], l[1], l[2])
	}

	walkable := make([]bool, i.Mesh.TriangleCount())
	for j := range walkable {
		walkable[j] = true
	}

	return raster.Soup{
		Vertices: flat,
		Indices:  i.Mesh.Indices,
		Walkable: walkable,
	}
}
