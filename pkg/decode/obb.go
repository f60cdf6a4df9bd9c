package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"rocktree/pkg/geom"
)

// obbPackedSize is the fixed wire size of an oriented bounding box: three
// int16 center offsets, three uint8 extents and three uint16 Euler angles.
const obbPackedSize = 15

// UnpackOBB decodes a 15-byte packed oriented bounding box. Center offsets
// and extents are scaled by metersPerTexel, the center relative to
// headNodeCenter. The three Euler angles use different fixed-point scales
// (pi/32768 for the first and third, pi/65536 for the second) and combine
// into the orientation matrix in a protocol-specific order; the formula is
// reproduced verbatim from the wire format, do not rearrange it.
func UnpackOBB(data []byte, headNodeCenter [3]float32, metersPerTexel float32) (geom.OBB, error) {
	if len(data) != obbPackedSize {
		return geom.OBB{}, fmt.Errorf("%w: oriented bounding box needs %d bytes, got %d", ErrInvalidFormat, obbPackedSize, len(data))
	}

	mpt := float64(metersPerTexel)

	var center, extents mgl64.Vec3
	for i := 0; i < 3; i++ {
		off := int16(binary.LittleEndian.Uint16(data[2*i:]))
		center[i] = float64(off)*mpt + float64(headNodeCenter[i])
		extents[i] = float64(data[6+i]) * mpt
	}

	a0 := float64(binary.LittleEndian.Uint16(data[9:])) * math.Pi / 32768
	a1 := float64(binary.LittleEndian.Uint16(data[11:])) * math.Pi / 65536
	a2 := float64(binary.LittleEndian.Uint16(data[13:])) * math.Pi / 32768

	c0, s0 := math.Cos(a0), math.Sin(a0)
	c1, s1 := math.Cos(a1), math.Sin(a1)
	c2, s2 := math.Cos(a2), math.Sin(a2)

	orientation := mgl64.Mat3{
		c0*c2 - c1*s0*s2, c1*c0*s2 + c2*s0, s2 * s1, // column 0
		-c0*s2 - c2*c1*s0, c0*c1*c2 - s0*s2, c2 * s1, // column 1
		s1 * s0, -c0 * s1, c1, // column 2
	}

	return geom.OBB{Center: center, Extents: extents, Orientation: orientation}, nil
}
