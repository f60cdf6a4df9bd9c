package decode

import (
	"encoding/binary"
	"fmt"
)

// Vertex is the fixed 8-byte vertex layout of the node mesh wire format.
// X, Y and Z are positions inside the node's 0-255 local cube, W is the
// octant index (0-7) assigned later by UnpackOctantMaskAndLayerBounds, and
// U, V are raw texture coordinates prior to the UV transform.
type Vertex struct {
	X, Y, Z uint8
	W       uint8
	U, V    uint16
}

// UvTransform maps a vertex's raw (U, V) to float texture coordinates via
// (coord + Offset) * Scale.
type UvTransform struct {
	OffsetU float32
	OffsetV float32
	ScaleU  float32
	ScaleV  float32
}

// UnpackVertices decodes the delta-packed vertex position planes. The buffer
// holds three equal-length planes [X][Y][Z], each delta-encoded with 8-bit
// wraparound addition; the vertex count is len(data)/3.
func UnpackVertices(data []byte) ([]Vertex, error) {
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("%w: vertex buffer length %d not divisible by 3", ErrInvalidFormat, len(data))
	}

	n := len(data) / 3
	vertices := make([]Vertex, n)

	var x, y, z uint8
	for i := 0; i < n; i++ {
		x += data[i]
		y += data[n+i]
		z += data[2*n+i]
		vertices[i] = Vertex{X: x, Y: y, Z: z}
	}

	return vertices, nil
}

// UnpackTexCoords decodes the delta-packed texture coordinate planes into the
// given vertices and returns the matching UV transform. The 4-byte header
// holds the u and v moduli (stored minus one, little-endian); the payload is
// four vertex-count-length planes: u low bytes, v low bytes, u high bytes,
// v high bytes.
func UnpackTexCoords(data []byte, vertices []Vertex) (UvTransform, error) {
	if len(data) < 4 {
		return UvTransform{}, fmt.Errorf("%w: texture coordinate header needs 4 bytes, got %d", ErrBufferTooSmall, len(data))
	}

	uMod := uint32(binary.LittleEndian.Uint16(data[0:2])) + 1
	vMod := uint32(binary.LittleEndian.Uint16(data[2:4])) + 1

	n := len(vertices)
	body := data[4:]
	if len(body) != 4*n {
		return UvTransform{}, fmt.Errorf("%w: texture coordinate payload is %d bytes, want %d for %d vertices", ErrInvalidFormat, len(body), 4*n, n)
	}

	var u, v uint32
	for i := 0; i < n; i++ {
		u = (u + uint32(body[i]) + uint32(body[2*n+i])<<8) % uMod
		v = (v + uint32(body[n+i]) + uint32(body[3*n+i])<<8) % vMod
		vertices[i].U = uint16(u)
		vertices[i].V = uint16(v)
	}

	return UvTransform{
		OffsetU: 0.5,
		OffsetV: 0.5,
		ScaleU:  1 / float32(uMod),
		ScaleV:  1 / float32(vMod),
	}, nil
}
