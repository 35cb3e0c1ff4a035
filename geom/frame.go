package geom

import "github.com/go-gl/mathgl/mgl64"

// Frame is a local tangent frame. U and V span the tangent plane and N is the
// outward normal. Local coordinates are laid out as (u, n, v) so the normal
// becomes the local height axis.
type Frame struct {
	Origin mgl64.Vec3
	U      mgl64.Vec3
	N      mgl64.Vec3
	V      mgl64.Vec3
}

// ToLocal expresses a world point in the frame.
func (f Frame) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(f.Origin)
	return mgl64.Vec3{d.Dot(f.U), d.Dot(f.N), d.Dot(f.V)}
}

// ToWorld is the inverse of ToLocal for orthonormal frames.
func (f Frame) ToWorld(l mgl64.Vec3) mgl64.Vec3 {
	return f.Origin.
		Add(f.U.Mul(l[0])).
		Add(f.N.Mul(l[1])).
		Add(f.V.Mul(l[2]))
}
