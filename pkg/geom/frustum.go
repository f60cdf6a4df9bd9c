package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is a half-space a*x + b*y + c*z + d >= 0.
type Plane struct {
	A, B, C, D float64
}

func (p Plane) normalize() Plane {
	l := math.Sqrt(p.A*p.A + p.B*p.B + p.C*p.C)
	if l == 0 {
		return p
	}
	return Plane{p.A / l, p.B / l, p.C / l, p.D / l}
}

// Normal returns the plane's unit normal.
func (p Plane) Normal() mgl64.Vec3 {
	return mgl64.Vec3{p.A, p.B, p.C}
}

// Frustum is the six clip planes of a view-projection matrix, in the order
// left, right, bottom, top, near, far.
type Frustum [6]Plane

// FrustumFromMatrix extracts the six frustum planes from a combined
// projection*view matrix (column-major, Gribb/Hartmann method).
func FrustumFromMatrix(clip mgl64.Mat4) Frustum {
	row := func(i int) [4]float64 {
		return [4]float64{clip[i], clip[4+i], clip[8+i], clip[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f[0] = Plane{r3[0] + r0[0], r3[1] + r0[1], r3[2] + r0[2], r3[3] + r0[3]}.normalize() // left
	f[1] = Plane{r3[0] - r0[0], r3[1] - r0[1], r3[2] - r0[2], r3[3] - r0[3]}.normalize() // right
	f[2] = Plane{r3[0] + r1[0], r3[1] + r1[1], r3[2] + r1[2], r3[3] + r1[3]}.normalize() // bottom
	f[3] = Plane{r3[0] - r1[0], r3[1] - r1[1], r3[2] - r1[2], r3[3] - r1[3]}.normalize() // top
	f[4] = Plane{r3[0] + r2[0], r3[1] + r2[1], r3[2] + r2[2], r3[3] + r2[3]}.normalize() // near
	f[5] = Plane{r3[0] - r2[0], r3[1] - r2[1], r3[2] - r2[2], r3[3] - r2[3]}.normalize() // far
	return f
}

// IntersectsOBB reports whether the box touches the frustum volume. For each
// plane the box is projected onto the plane normal; if the most positive
// corner is still behind the plane the box is fully outside.
func (f Frustum) IntersectsOBB(o *OBB) bool {
	for _, p := range f {
		n := p.Normal()
		r := math.Abs(o.Extents[0]*o.Axis(0).Dot(n)) +
			math.Abs(o.Extents[1]*o.Axis(1).Dot(n)) +
			math.Abs(o.Extents[2]*o.Axis(2).Dot(n))
		if n.Dot(o.Center)+p.D < -r {
			return false
		}
	}
	return true
}
