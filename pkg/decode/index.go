package decode

import "fmt"

// UnpackIndices decodes the varint-packed triangle strip. The first varint is
// the strip length; each following varint is subtracted from a running
// zero-counter with 16-bit wraparound, reconstructing run-length vertex
// reuse.
func UnpackIndices(data []byte) ([]uint16, error) {
	offset := 0

	stripLen, err := ReadVarint(data, &offset)
	if err != nil {
		return nil, fmt.Errorf("strip length: %w", err)
	}

	strip := make([]uint16, stripLen)
	var zeros uint32
	for i := range strip {
		v, err := ReadVarint(data, &offset)
		if err != nil {
			return nil, fmt.Errorf("strip entry %d: %w", i, err)
		}
		strip[i] = uint16(zeros - v)
		if v == 0 {
			zeros++
		}
	}

	return strip, nil
}

// StripToTriangles expands a triangle strip into a triangle list. Windows
// with any two equal corners are degenerate and skipped; winding alternates
// so that even windows emit (a,b,c) and odd windows emit (a,c,b).
func StripToTriangles(strip []uint16) []uint16 {
	if len(strip) < 3 {
		return nil
	}

	out := make([]uint16, 0, 3*(len(strip)-2))
	for i := 0; i+2 < len(strip); i++ {
		a, b, c := strip[i], strip[i+1], strip[i+2]
		if a == b || b == c || a == c {
			continue
		}
		if i%2 == 0 {
			out = append(out, a, b, c)
		} else {
			out = append(out, a, c, b)
		}
	}
	return out
}

// StripToTriangles32 is StripToTriangles widened to 32-bit indices for
// renderers that upload uint32 index buffers.
func StripToTriangles32(strip []uint16) []uint32 {
	if len(strip) < 3 {
		return nil
	}

	out := make([]uint32, 0, 3*(len(strip)-2))
	for i := 0; i+2 < len(strip); i++ {
		a, b, c := strip[i], strip[i+1], strip[i+2]
		if a == b || b == c || a == c {
			continue
		}
		if i%2 == 0 {
			out = append(out, uint32(a), uint32(b), uint32(c))
		} else {
			out = append(out, uint32(a), uint32(c), uint32(b))
		}
	}
	return out
}
