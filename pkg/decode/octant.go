package decode

import "fmt"

// LayerBoundCount is the number of layer bounds recorded per mesh. Bound 3
// marks the end of the directly rendered geometry; callers truncate the index
// list there.
const LayerBoundCount = 10

// UnpackOctantMaskAndLayerBounds decodes the run-length octant mask, writing
// each referenced vertex's octant index into its W field, and returns the
// layer bounds recorded at every eighth run. Unused bound slots are filled
// with the final cumulative index count.
func UnpackOctantMaskAndLayerBounds(packed []byte, indices []uint16, vertices []Vertex) ([LayerBoundCount]int, error) {
	var bounds [LayerBoundCount]int

	offset := 0
	runs, err := ReadVarint(packed, &offset)
	if err != nil {
		return bounds, fmt.Errorf("run count: %w", err)
	}

	cursor := 0 // position in indices
	k := 0      // cumulative run length
	m := 0
	for i := uint32(0); i < runs; i++ {
		if i%8 == 0 && m < LayerBoundCount {
			bounds[m] = k
			m++
		}

		v, err := ReadVarint(packed, &offset)
		if err != nil {
			return bounds, fmt.Errorf("run %d: %w", i, err)
		}

		for j := uint32(0); j < v; j++ {
			if cursor >= len(indices) {
				return bounds, fmt.Errorf("%w: index %d of %d", ErrIndexOutOfBounds, cursor, len(indices))
			}
			vi := int(indices[cursor])
			if vi >= len(vertices) {
				return bounds, fmt.Errorf("%w: vertex %d of %d", ErrIndexOutOfBounds, vi, len(vertices))
			}
			vertices[vi].W = uint8(i & 7)
			cursor++
		}
		k += int(v)
	}

	for ; m < LayerBoundCount; m++ {
		bounds[m] = k
	}

	return bounds, nil
}
