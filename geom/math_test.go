package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestNormalized(t *testing.T) {
	zero := mgl64.Vec3{0, 0, 0}
	require.Equal(t, zero, Normalized(zero))

	n := Normalized(mgl64.Vec3{1, 1, 1})
	require.True(t, EqualWithEpsilon(n.Len(), 1, 0.0001))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0, Clamp(-3, 0, 4))
	require.Equal(t, 4, Clamp(9, 0, 4))
	require.Equal(t, 2, Clamp(2, 0, 4))
}

func TestTransform(t *testing.T) {
	m := Transform(
		mgl64.Vec3{10, 0, 0},
		mgl64.QuatRotate(math.Pi/2, Up),
		mgl64.Vec3{2, 2, 2},
	)

	p := TransformPoint(m, mgl64.Vec3{1, 0, 0})
	require.True(t, VecEqualWithEpsilon(mgl64.Vec3{10, 0, -2}, p, 0.0001))
}

func TestRotateAround(t *testing.T) {
	pivot := mgl64.Vec3{5, 5, 5}
	p := RotateAround(mgl64.Vec3{6, 5, 5}, pivot, Up, math.Pi)
	require.True(t, VecEqualWithEpsilon(mgl64.Vec3{4, 5, 5}, p, 0.0001))
}

func TestFrame(t *testing.T) {
	f := Frame{
		Origin: mgl64.Vec3{0, 100, 0},
		U:      mgl64.Vec3{1, 0, 0},
		N:      mgl64.Vec3{0, 1, 0},
		V:      mgl64.Vec3{0, 0, -1},
	}

	local := f.ToLocal(mgl64.Vec3{3, 104, -7})
	require.True(t, VecEqualWithEpsilon(mgl64.Vec3{3, 4, 7}, local, 0.0001))
	require.True(t, VecEqualWithEpsilon(mgl64.Vec3{3, 104, -7}, f.ToWorld(local), 0.0001))
}

func TestAABB(t *testing.T) {
	box := NewAABB(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})
	require.False(t, box.IsEmpty())
	require.True(t, box.Contains(mgl64.Vec3{0, 0, 0}))
	require.False(t, box.Contains(mgl64.Vec3{2, 0, 0}))

	t.Run("overlapping boxes intersect", func(t *testing.T) {
		other := NewAABB(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{3, 3, 3})
		require.True(t, box.Intersects(other))
		require.True(t, other.Intersects(box))
	})

	t.Run("touching boxes intersect", func(t *testing.T) {
		other := NewAABB(mgl64.Vec3{1, -1, -1}, mgl64.Vec3{2, 1, 1})
		require.True(t, box.Intersects(other))
	})

	t.Run("separated boxes do not intersect", func(t *testing.T) {
		other := NewAABB(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{11, 1, 1})
		require.False(t, box.Intersects(other))
	})

	t.Run("empty box intersects nothing", func(t *testing.T) {
		require.True(t, EmptyAABB().IsEmpty())
		require.False(t, EmptyAABB().Intersects(box))
	})
}
