package sphere

import (
	"math"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/go-gl/mathgl/mgl64"
)

// SeamPoint rotates p by one column stride in the given direction, around
// the sphere center. Locating the result gives the neighbor column across a
// tile seam, whatever the longitude resolution of the band on the other
// side.
func SeamPoint(s *Sphere, p mgl64.Vec3, dir registry.Direction) mgl64.Vec3 {
	switch dir {
	case registry.NegX, registry.X:
		angle := 2 * math.Pi / float64(len(s.Bands[s.Band(p)])*s.TileSize)
		if dir == registry.X {
			angle = -angle
		}
		return geom.RotateAround(p, s.Center, geom.Up, angle)

	default:
		angle := math.Pi / float64((len(s.Bands)-1)*s.TileSize)
		if dir == registry.Z {
			angle = -angle
		}

		axis := p.Sub(s.Center).Cross(geom.Up)
		if geom.EqualWithEpsilon(axis.Len(), 0, 1e-9) {
			axis = s.TileByIndex(s.TileIndex(p)).U
		}
		return geom.RotateAround(p, s.Center, axis, angle)
	}
}
