package sphere

import (
	"math"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
	"github.com/go-gl/mathgl/mgl64"
)

var south = mgl64.Vec3{0, -1, 0}

// Location is where a world point falls on a sphere.
type Location struct {
	Band int `json:"band"`
	Pos  int `json:"pos"`
	Tile int `json:"tile"`
	X    int `json:"x"`
	Z    int `json:"z"`

	// Sphere-relative column index.
	Column int `json:"column"`

	// Registry-wide column index.
	Global int `json:"global_column"`
}

// Locate resolves the band, tile and column holding p. It never fails:
// results are clamped to valid indices.
func (s *Sphere) Locate(p mgl64.Vec3) Location {
	band, pos := s.TileInBand(p)
	tile := &s.Bands[band][pos]
	x, z := s.columnInTile(tile, p)
	column := tile.Index*s.TileSize*s.TileSize + x*s.TileSize + z

	return Location{
		Band:   band,
		Pos:    pos,
		Tile:   tile.Index,
		X:      x,
		Z:      z,
		Column: column,
		Global: s.Range.Begin + column,
	}
}

// Band returns the latitude band holding p.
func (s *Sphere) Band(p mgl64.Vec3) int {
	last := len(s.Bands) - 1
	stride := 180 / float64(last)

	dot := geom.Normalized(p.Sub(s.Center)).Dot(south)
	angle := mgl64.RadToDeg(math.Acos(mgl64.Clamp(dot, -1, 1)))

	switch {
	case angle < stride/2:
		return 0

	case 180-angle < stride/2:
		return last

	default:
		return geom.Clamp(roundIndex(angle, stride), 0, last)
	}
}

// TileInBand returns the band and the longitude position within the band of
// the tile holding p.
func (s *Sphere) TileInBand(p mgl64.Vec3) (int, int) {
	band := s.Band(p)
	if band == 0 || band == len(s.Bands)-1 {
		return band, 0
	}

	d := p.Sub(s.Center)
	dot := geom.Normalized(mgl64.Vec3{d[0], 0, d[2]}).Dot(mgl64.Vec3{1, 0, 0})
	azimuth := math.Acos(mgl64.Clamp(dot, -1, 1))
	if d[2] < 0 {
		azimuth = 2*math.Pi - azimuth
	}

	count := len(s.Bands[band])
	stride := 2 * math.Pi / float64(count)
	if azimuth < stride/2 || 2*math.Pi-azimuth < stride/2 {
		return band, 0
	}
	return band, geom.Clamp(roundIndex(azimuth, stride), 0, count-1)
}

// TileIndex returns the sphere-relative index of the tile holding p.
func (s *Sphere) TileIndex(p mgl64.Vec3) int {
	band, pos := s.TileInBand(p)
	return s.Bands[band][pos].Index
}

// Column returns the tile index and the local grid cell holding p.
func (s *Sphere) Column(p mgl64.Vec3) (tile, x, z int) {
	band, pos := s.TileInBand(p)
	t := &s.Bands[band][pos]
	x, z = s.columnInTile(t, p)
	return t.Index, x, z
}

// ColumnIndex returns the sphere-relative index of the column holding p.
func (s *Sphere) ColumnIndex(p mgl64.Vec3) int {
	tile, x, z := s.Column(p)
	return tile*s.TileSize*s.TileSize + x*s.TileSize + z
}

// GlobalColumn returns the registry index of the column holding p.
func (s *Sphere) GlobalColumn(p mgl64.Vec3) int {
	return s.Range.Begin + s.ColumnIndex(p)
}

// Project returns the point of the sphere shell in the direction of p.
func (s *Sphere) Project(p mgl64.Vec3) mgl64.Vec3 {
	return s.Center.Add(geom.Normalized(p.Sub(s.Center)).Mul(s.Radius))
}

func (s *Sphere) columnInTile(t *Tile, p mgl64.Vec3) (int, int) {
	frame := geom.Frame{
		Origin: t.Center,
		U:      t.U,
		N:      t.Normal(),
		V:      t.V,
	}
	local := frame.ToLocal(s.Project(p))
	half := s.Footprint() / 2

	x := int((local[0] + half) / s.Stride)
	z := int((local[2] + half) / s.Stride)
	return geom.Clamp(x, 0, s.TileSize-1), geom.Clamp(z, 0, s.TileSize-1)
}

// roundIndex divides value by stride and rounds to the nearest index, going
// up only when the remainder is strictly above half a stride.
func roundIndex(value, stride float64) int {
	i := int(value / stride)
	if value-float64(i)*stride > stride/2 {
		i++
	}
	return i
}
