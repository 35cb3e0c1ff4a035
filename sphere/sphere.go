package sphere

import (
	"math"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	ErrTypeInvalidParams  = "invalid_sphere_params"
	ErrTypeAlreadyBuilt   = "sphere_already_built"
	ErrTypeColumnMismatch = "sphere_column_mismatch"
)

// Params describes the sphere to tessellate.
type Params struct {
	Center   mgl64.Vec3
	Radius   float64
	Stride   float64
	TileSize int
	Index    int
}

func (p Params) validate() error {
	if p.Radius <= 0 || p.Stride <= 0 || p.TileSize < 1 {
		return errors.New("invalid sphere parameters").
			WithType(ErrTypeInvalidParams).
			WithTag("radius", p.Radius).
			WithTag("stride", p.Stride).
			WithTag("tile_size", p.TileSize)
	}
	return nil
}

// Tile is a tangent-plane patch of the sphere surface.
type Tile struct {
	Index  int
	Band   int
	Pos    int
	Center mgl64.Vec3
	U      mgl64.Vec3
	V      mgl64.Vec3
}

// Normal returns the outward normal of the tile.
func (t *Tile) Normal() mgl64.Vec3 {
	return geom.Normalized(t.U.Cross(t.V))
}

type tileAddr struct {
	band int
	pos  int
}

// Sphere is a tessellated sphere. Its topology is immutable once built.
type Sphere struct {
	ID       string
	Index    int
	Center   mgl64.Vec3
	Radius   float64
	Stride   float64
	TileSize int

	// Tiles by latitude band then longitude position.
	Bands [][]Tile

	// The registry range holding the sphere columns.
	Range registry.Range

	unitAngle float64
	tiles     []tileAddr
}

// Build tessellates a sphere and registers its columns. A sphere index can
// only be built once per registry.
func Build(reg *registry.Registry, p Params) (*Sphere, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if _, ok := reg.Range(p.Index); ok {
		return nil, errors.New("sphere already built").
			WithType(ErrTypeAlreadyBuilt).
			WithTag("sphere", p.Index)
	}

	s := &Sphere{
		ID:        uuid.NewString(),
		Index:     p.Index,
		Center:    p.Center,
		Radius:    p.Radius,
		Stride:    p.Stride,
		TileSize:  p.TileSize,
		unitAngle: math.Pi / (math.Pi * p.Radius / (p.Stride * float64(p.TileSize))),
	}
	s.buildTiles()

	s.Range = registry.Range{
		Begin: reg.Next(),
		Count: s.ColumnCount(),
	}
	columns := s.buildColumns()

	rng, err := reg.Append(s.Index, columns)
	if err != nil {
		return nil, errors.New("registering sphere columns failed").
			WithTag("sphere", s.Index).
			Wrap(err)
	}
	if rng != s.Range {
		return nil, errors.New("registered range does not match the sphere").
			WithType(ErrTypeColumnMismatch).
			WithTag("expected_begin", s.Range.Begin).
			WithTag("begin", rng.Begin)
	}

	logs.WithTag("sphere", s.Index).
		WithTag("sphere_id", s.ID).
		WithTag("bands", len(s.Bands)).
		WithTag("tiles", humanize.Comma(int64(s.TileCount()))).
		WithTag("columns", humanize.Comma(int64(s.ColumnCount()))).
		Info("sphere built")
	return s, nil
}

func (s *Sphere) buildTiles() {
	n := int(math.Pi/s.unitAngle + 2)
	s.Bands = make([][]Tile, n+1)
	dl := 180.0 / float64(n)

	transform := mgl64.Translate3D(s.Center[0], s.Center[1], s.Center[2]).
		Mul4(mgl64.Scale3D(s.Radius, s.Radius, s.Radius))

	index := 0
	for i := 0; i <= n; i++ {
		degree := -90 + float64(i)*dl
		lat := mgl64.DegToRad(degree)
		y := math.Sin(lat)
		r := math.Cos(lat)
		perimeter := r * math.Pi * 2

		if perimeter <= s.unitAngle {
			t := Tile{
				Index:  index,
				Band:   i,
				Center: mgl64.Vec3{0, -1, 0},
				U:      mgl64.Vec3{1, 0, 0},
				V:      mgl64.Vec3{0, 0, 1},
			}
			if degree > 0 {
				t.Center = mgl64.Vec3{0, 1, 0}
				t.V = mgl64.Vec3{0, 0, -1}
			}
			t.Center = geom.TransformPoint(transform, t.Center)

			s.Bands[i] = []Tile{t}
			s.tiles = append(s.tiles, tileAddr{band: i})
			index++
			continue
		}

		count := int(perimeter/s.unitAngle + 4)
		da := math.Pi * 2 / float64(count)
		band := make([]Tile, count)

		for j := range band {
			lng := da * float64(j)
			p := mgl64.Vec3{r * math.Cos(lng), y, r * math.Sin(lng)}
			u := geom.Normalized(p.Cross(geom.Up))

			band[j] = Tile{
				Index:  index,
				Band:   i,
				Pos:    j,
				Center: geom.TransformPoint(transform, p),
				U:      u,
				V:      geom.Normalized(p.Cross(u)),
			}
			s.tiles = append(s.tiles, tileAddr{band: i, pos: j})
			index++
		}
		s.Bands[i] = band
	}
}

func (s *Sphere) buildColumns() []registry.Column {
	t := s.TileSize
	columns := make([]registry.Column, 0, s.ColumnCount())

	for _, addr := range s.tiles {
		tile := &s.Bands[addr.band][addr.pos]
		corner := s.MinCorner(tile)

		for x := 0; x < t; x++ {
			for z := 0; z < t; z++ {
				center := corner.
					Add(tile.U.Mul((float64(x) + 0.5) * s.Stride)).
					Add(tile.V.Mul((float64(z) + 0.5) * s.Stride))
				local := tile.Index*t*t + x*t + z

				c := registry.Column{
					Center: center,
					Sphere: s.Index,
					Tile:   tile.Index,
				}

				c.Neighbors[registry.NegX] = s.neighbor(center, local, x != 0, -t, registry.NegX)
				c.Neighbors[registry.X] = s.neighbor(center, local, x != t-1, t, registry.X)
				c.Neighbors[registry.NegZ] = s.neighbor(center, local, z != 0, -1, registry.NegZ)
				c.Neighbors[registry.Z] = s.neighbor(center, local, z != t-1, 1, registry.Z)
				columns = append(columns, c)
			}
		}
	}
	return columns
}

func (s *Sphere) neighbor(center mgl64.Vec3, local int, interior bool, offset int, dir registry.Direction) int {
	if interior {
		return s.Range.Begin + local + offset
	}
	return s.Range.Begin + s.ColumnIndex(SeamPoint(s, center, dir))
}

// TileCount returns the number of tiles of the sphere.
func (s *Sphere) TileCount() int {
	return len(s.tiles)
}

// ColumnCount returns the number of columns of the sphere.
func (s *Sphere) ColumnCount() int {
	return len(s.tiles) * s.TileSize * s.TileSize
}

// TileByIndex returns the tile with the given sphere-relative index, or nil
// when the index is out of bounds.
func (s *Sphere) TileByIndex(i int) *Tile {
	if i < 0 || i >= len(s.tiles) {
		return nil
	}
	addr := s.tiles[i]
	return &s.Bands[addr.band][addr.pos]
}

// Footprint returns the side length of a tile.
func (s *Sphere) Footprint() float64 {
	return s.Stride * float64(s.TileSize)
}

// MinCorner returns the world position of the tile corner at local (0, 0).
func (s *Sphere) MinCorner(t *Tile) mgl64.Vec3 {
	half := s.Footprint() / 2
	return t.Center.
		Sub(t.U.Mul(half)).
		Sub(t.V.Mul(half))
}

// Frame returns the tangent frame of a tile: origin at the tile center and
// the normal pointing away from the sphere center.
func (s *Sphere) Frame(t *Tile) geom.Frame {
	return geom.Frame{
		Origin: t.Center,
		U:      t.U,
		N:      geom.Normalized(t.Center.Sub(s.Center)),
		V:      t.V,
	}
}

// TileColumns returns the global column range [begin, end) of a tile.
func (s *Sphere) TileColumns(tile int) (int, int) {
	return registry.TileColumns(s.Range, tile, s.TileSize)
}
