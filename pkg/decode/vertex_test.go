package decode

import (
	"errors"
	"testing"
)

// createTestVertexPlanes builds the delta-packed [X][Y][Z] plane buffer for
// the given absolute positions.
func createTestVertexPlanes(positions [][3]uint8) []byte {
	n := len(positions)
	buf := make([]byte, 3*n)

	var prev [3]uint8
	for i, p := range positions {
		for axis := 0; axis < 3; axis++ {
			buf[axis*n+i] = p[axis] - prev[axis] // 8-bit wraparound delta
		}
		prev = p
	}
	return buf
}

func TestUnpackVertices_Basic(t *testing.T) {
	positions := [][3]uint8{
		{10, 20, 30},
		{15, 25, 35},
		{15, 20, 40},
	}
	data := createTestVertexPlanes(positions)

	vertices, err := UnpackVertices(data)
	if err != nil {
		t.Fatalf("UnpackVertices failed: %v", err)
	}

	if len(vertices) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(vertices))
	}
	for i, want := range positions {
		v := vertices[i]
		if v.X != want[0] || v.Y != want[1] || v.Z != want[2] {
			t.Errorf("vertex %d: expected (%d,%d,%d), got (%d,%d,%d)",
				i, want[0], want[1], want[2], v.X, v.Y, v.Z)
		}
	}
}

func TestUnpackVertices_Wraparound(t *testing.T) {
	// 250 + 10 wraps to 4 in 8-bit arithmetic.
	positions := [][3]uint8{
		{250, 0, 0},
		{4, 0, 0},
	}
	data := createTestVertexPlanes(positions)

	vertices, err := UnpackVertices(data)
	if err != nil {
		t.Fatalf("UnpackVertices failed: %v", err)
	}
	if vertices[1].X != 4 {
		t.Errorf("expected wrapped X 4, got %d", vertices[1].X)
	}
}

func TestUnpackVertices_Empty(t *testing.T) {
	vertices, err := UnpackVertices(nil)
	if err != nil {
		t.Fatalf("UnpackVertices failed: %v", err)
	}
	if len(vertices) != 0 {
		t.Errorf("expected no vertices, got %d", len(vertices))
	}
}

func TestUnpackVertices_BadLength(t *testing.T) {
	_, err := UnpackVertices(make([]byte, 7))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

// createTestTexCoords builds the texture coordinate buffer: a 4-byte header
// with each modulus stored minus one, then u-low, v-low, u-high, v-high
// planes delta-encoded modulo the respective modulus.
func createTestTexCoords(uMod, vMod uint32, coords [][2]uint16) []byte {
	n := len(coords)
	buf := make([]byte, 4+4*n)
	buf[0] = byte(uMod - 1)
	buf[1] = byte((uMod - 1) >> 8)
	buf[2] = byte(vMod - 1)
	buf[3] = byte((vMod - 1) >> 8)

	body := buf[4:]
	var pu, pv uint32
	for i, c := range coords {
		du := (uint32(c[0]) + uMod - pu) % uMod
		dv := (uint32(c[1]) + vMod - pv) % vMod
		body[i] = byte(du)
		body[2*n+i] = byte(du >> 8)
		body[n+i] = byte(dv)
		body[3*n+i] = byte(dv >> 8)
		pu, pv = uint32(c[0]), uint32(c[1])
	}
	return buf
}

func TestUnpackTexCoords_Basic(t *testing.T) {
	coords := [][2]uint16{
		{0, 0},
		{100, 200},
		{50, 300},
		{511, 511},
	}
	data := createTestTexCoords(512, 512, coords)

	vertices := make([]Vertex, len(coords))
	uv, err := UnpackTexCoords(data, vertices)
	if err != nil {
		t.Fatalf("UnpackTexCoords failed: %v", err)
	}

	for i, want := range coords {
		if vertices[i].U != want[0] || vertices[i].V != want[1] {
			t.Errorf("vertex %d: expected (%d,%d), got (%d,%d)",
				i, want[0], want[1], vertices[i].U, vertices[i].V)
		}
	}

	if uv.OffsetU != 0.5 || uv.OffsetV != 0.5 {
		t.Errorf("expected offsets 0.5, got (%f,%f)", uv.OffsetU, uv.OffsetV)
	}
	if uv.ScaleU != 1.0/512 || uv.ScaleV != 1.0/512 {
		t.Errorf("expected scales 1/512, got (%f,%f)", uv.ScaleU, uv.ScaleV)
	}
}

func TestUnpackTexCoords_ModulusWraps(t *testing.T) {
	// Deltas accumulate modulo the per-axis modulus.
	coords := [][2]uint16{
		{250, 3},
		{5, 1}, // wraps past uMod=256
	}
	data := createTestTexCoords(256, 4, coords)

	vertices := make([]Vertex, len(coords))
	if _, err := UnpackTexCoords(data, vertices); err != nil {
		t.Fatalf("UnpackTexCoords failed: %v", err)
	}
	if vertices[1].U != 5 {
		t.Errorf("expected wrapped U 5, got %d", vertices[1].U)
	}
	if vertices[1].V != 1 {
		t.Errorf("expected wrapped V 1, got %d", vertices[1].V)
	}
}

func TestUnpackTexCoords_ShortHeader(t *testing.T) {
	_, err := UnpackTexCoords([]byte{1, 0}, nil)
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestUnpackTexCoords_PayloadMismatch(t *testing.T) {
	data := createTestTexCoords(16, 16, [][2]uint16{{1, 2}})
	vertices := make([]Vertex, 3) // buffer only holds one vertex's planes

	_, err := UnpackTexCoords(data, vertices)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
