// Package geom provides the spatial math used by the streaming engine:
// oriented bounding boxes, view-frustum extraction and intersection tests,
// and the screen-space-error metric driving level-of-detail refinement.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OBB is an oriented bounding box: a center, half-widths along three local
// axes and the rotation from local to world space. Immutable once decoded.
type OBB struct {
	Center      mgl64.Vec3
	Extents     mgl64.Vec3
	Orientation mgl64.Mat3
}

// Axis returns the i-th local axis (column i of the orientation matrix).
func (o *OBB) Axis(i int) mgl64.Vec3 {
	return o.Orientation.Col(i)
}

// DistanceTo returns the distance from p to the closest point of the box,
// or 0 when p is inside.
func (o *OBB) DistanceTo(p mgl64.Vec3) float64 {
	d := p.Sub(o.Center)

	var sq float64
	for i := 0; i < 3; i++ {
		t := d.Dot(o.Axis(i))
		if excess := math.Abs(t) - o.Extents[i]; excess > 0 {
			sq += excess * excess
		}
	}
	return math.Sqrt(sq)
}

// Corners returns the eight world-space corners of the box.
func (o *OBB) Corners() [8]mgl64.Vec3 {
	ex := o.Axis(0).Mul(o.Extents[0])
	ey := o.Axis(1).Mul(o.Extents[1])
	ez := o.Axis(2).Mul(o.Extents[2])

	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		c := o.Center
		if i&1 != 0 {
			c = c.Add(ex)
		} else {
			c = c.Sub(ex)
		}
		if i&2 != 0 {
			c = c.Add(ey)
		} else {
			c = c.Sub(ey)
		}
		if i&4 != 0 {
			c = c.Add(ez)
		} else {
			c = c.Sub(ez)
		}
		out[i] = c
	}
	return out
}
