package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RefineThreshold is the screen-space texel size, in pixels, above which a
// node is considered too coarse and its children are traversed.
const RefineThreshold = 0.6

// LodMetrics converts a node's meters-per-texel resolution into an on-screen
// pixel size for the current camera.
type LodMetrics struct {
	CameraPos    mgl64.Vec3
	FovY         float64 // vertical field of view, radians
	ScreenHeight float64 // pixels
}

// PixelsPerTexel returns the projected size of one texel, in pixels, for a
// node with the given bounds and resolution.
func (m *LodMetrics) PixelsPerTexel(obb *OBB, metersPerTexel float64) float64 {
	distance := obb.DistanceTo(m.CameraPos)
	if distance <= 0 {
		return math.Inf(1)
	}
	// Meters covered by one pixel at this distance.
	metersPerPixel := 2 * distance * math.Tan(m.FovY/2) / m.ScreenHeight
	return metersPerTexel / metersPerPixel
}

// ShouldRefine reports whether the node's projected texel error exceeds the
// refinement threshold, i.e. whether finer children should be traversed.
func (m *LodMetrics) ShouldRefine(obb *OBB, metersPerTexel float64) bool {
	return m.PixelsPerTexel(obb, metersPerTexel) > RefineThreshold
}
