package decode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// UnpackForNormals decodes a node's shared normal table into packed RGB
// triplets (one per table entry). The 3-byte header holds the entry count
// (little-endian uint16) and a quantization scale byte; the payload is two
// count-length planes of quantized octahedral coordinates.
//
// The inverse octahedron mapping below, including the region-folding case
// split, mirrors the wire producer bit for bit. Do not simplify the branch
// structure.
func UnpackForNormals(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: normal table header needs 3 bytes, got %d", ErrBufferTooSmall, len(data))
	}

	count := int(binary.LittleEndian.Uint16(data[0:2]))
	scale := int(data[2])
	body := data[3:]
	if len(body) != 2*count {
		return nil, fmt.Errorf("%w: normal table payload is %d bytes, want %d", ErrInvalidFormat, len(body), 2*count)
	}

	out := make([]byte, 3*count)
	for i := 0; i < count; i++ {
		a := float64(expandNormalComponent(int(body[i]), scale)) / 255
		f := float64(expandNormalComponent(int(body[count+i]), scale)) / 255

		b, c := a, f
		g, h := b+c, b-c
		sign := 1.0

		if !(g >= 0.5 && g <= 1.5 && h >= -0.5 && h <= 0.5) {
			sign = -1
			switch {
			case g <= 0.5:
				b = 0.5 - f
				c = 0.5 - a
			case g >= 1.5:
				b = 1.5 - f
				c = 1.5 - a
			case h <= -0.5:
				b = f - 0.5
				c = a + 0.5
			default:
				b = f + 0.5
				c = a - 0.5
			}
			g = b + c
			h = b - c
		}

		a = math.Min(math.Min(2*g-1, 3-2*g), math.Min(2*h+1, 1-2*h)) * sign
		b = 2*b - 1
		c = 2*c - 1
		m := 127 / math.Sqrt(a*a+b*b+c*c)

		out[3*i+0] = clampNormalByte(m*a + 127)
		out[3*i+1] = clampNormalByte(m*b + 127)
		out[3*i+2] = clampNormalByte(m*c + 127)
	}

	return out, nil
}

// expandNormalComponent widens a quantized component back to 8 bits. Scales
// up to 4 shift and replicate the low bits once; scales 5 and 6 replicate the
// shifted value down repeatedly; scales of 7 and above collapse to 0 or -1
// keyed on the low bit.
func expandNormalComponent(v, scale int) int {
	if scale <= 4 {
		return v<<scale + v&(1<<scale-1)
	}
	if scale <= 6 {
		r := 8 - scale
		return v<<scale + v<<scale>>r + v<<scale>>r>>r + v<<scale>>r>>r>>r
	}
	return -(v & 1)
}

func clampNormalByte(v float64) byte {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

// UnpackNormals resolves a mesh's per-vertex normal indices against a table
// decoded by UnpackForNormals, producing 4 bytes per vertex (RGB plus a zero
// pad). The index planes split each 16-bit index into low and high bytes.
func UnpackNormals(data []byte, table []byte) ([]byte, error) {
	count := len(data) / 2

	out := make([]byte, 4*count)
	for i := 0; i < count; i++ {
		j := int(data[i]) | int(data[count+i])<<8
		if 3*j+2 >= len(table) {
			return nil, fmt.Errorf("%w: normal %d of %d", ErrIndexOutOfBounds, j, len(table)/3)
		}
		out[4*i+0] = table[3*j+0]
		out[4*i+1] = table[3*j+1]
		out[4*i+2] = table[3*j+2]
	}

	return out, nil
}

// PlaceholderNormals returns the constant mid-gray normal encoding used when
// a mesh carries no normal data (the encoding's zero vector).
func PlaceholderNormals(count int) []byte {
	out := make([]byte, 4*count)
	for i := 0; i < count; i++ {
		out[4*i+0] = 127
		out[4*i+1] = 127
		out[4*i+2] = 127
	}
	return out
}
