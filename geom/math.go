package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world up axis. Latitude bands are stacked along it.
var Up = mgl64.Vec3{0, 1, 0}

func EqualWithEpsilon(a float64, b float64, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func InRangeWithEpsilon(value float64, min float64, max float64, epsilon float64) bool {
	return value+epsilon >= min && value-epsilon <= max
}

func VecEqualWithEpsilon(a, b mgl64.Vec3, epsilon float64) bool {
	return EqualWithEpsilon(a[0], b[0], epsilon) &&
		EqualWithEpsilon(a[1], b[1], epsilon) &&
		EqualWithEpsilon(a[2], b[2], epsilon)
}

// Normalized returns a unit vector pointing like v. A zero vector is returned
// unchanged instead of turning into NaNs.
func Normalized(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length == 0 {
		return v
	}
	return v.Mul(1 / length)
}

// Clamp bounds an integer to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Transform builds the translate * rotate * scale world matrix of a placed
// object.
func Transform(position mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// TransformPoint applies m to the point p.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// RotateAround rotates p by angle radians around axis passing through
// pivot.
func RotateAround(p, pivot, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	q := mgl64.QuatRotate(angle, Normalized(axis))
	return pivot.Add(q.Rotate(p.Sub(pivot)))
}
