// Package crn decodes CRN (crunch) compressed textures to DXT1 blocks and
// onward to RGBA pixels. Only the DXT1 variant used by the rocktree texture
// pipeline is supported.
//
// The container uses big-endian packed header fields, a shared Huffman table
// section, and per-level chunk streams where each chunk covers 2x2 DXT1
// blocks split into 1-4 endpoint tiles.
package crn

import (
	"errors"
	"fmt"
)

// CRN errors.
var (
	ErrNotCRN            = errors.New("not a CRN file")
	ErrUnsupportedFormat = errors.New("unsupported CRN format")
	ErrTruncated         = errors.New("truncated CRN data")
	ErrCorrupt           = errors.New("corrupt CRN data")
)

// Magic is the big-endian signature ('H','x') opening every CRN file.
const Magic = 0x4878

// formatDXT1 is the only palette format the rocktree pipeline emits.
const formatDXT1 = 0

// palette locates one shared palette section inside the file.
type palette struct {
	Ofs   uint32
	Size  uint32
	Count uint32
}

// Header is the parsed CRN container header.
type Header struct {
	HeaderSize uint16
	DataSize   uint32
	Width      uint16
	Height     uint16
	Levels     uint8
	Faces      uint8
	Format     uint8

	colorEndpoints palette
	colorSelectors palette
	alphaEndpoints palette
	alphaSelectors palette

	tablesSize uint32
	tablesOfs  uint32
	levelOfs   []uint32
}

const headerFixedSize = 70 // bytes before the per-level offset table

// be reads an n-byte big-endian unsigned integer at data[ofs:].
func be(data []byte, ofs, n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(data[ofs+i])
	}
	return v
}

func parsePalette(data []byte, ofs int) palette {
	return palette{
		Ofs:   be(data, ofs, 3),
		Size:  be(data, ofs+3, 3),
		Count: be(data, ofs+6, 2),
	}
}

// ParseHeader validates and parses the CRN container header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < headerFixedSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, headerFixedSize, len(data))
	}
	if be(data, 0, 2) != Magic {
		return nil, ErrNotCRN
	}

	h := &Header{
		HeaderSize: uint16(be(data, 2, 2)),
		DataSize:   be(data, 6, 4),
		Width:      uint16(be(data, 12, 2)),
		Height:     uint16(be(data, 14, 2)),
		Levels:     uint8(be(data, 16, 1)),
		Faces:      uint8(be(data, 17, 1)),
		Format:     uint8(be(data, 18, 1)),

		colorEndpoints: parsePalette(data, 33),
		colorSelectors: parsePalette(data, 41),
		alphaEndpoints: parsePalette(data, 49),
		alphaSelectors: parsePalette(data, 57),

		tablesSize: be(data, 65, 2),
		tablesOfs:  be(data, 67, 3),
	}

	if h.Format != formatDXT1 {
		return nil, fmt.Errorf("%w: format %d", ErrUnsupportedFormat, h.Format)
	}
	if h.Levels == 0 || h.Faces == 0 || h.Width == 0 || h.Height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrCorrupt)
	}

	end := headerFixedSize + 4*int(h.Levels)
	if len(data) < end {
		return nil, fmt.Errorf("%w: level offset table", ErrTruncated)
	}
	h.levelOfs = make([]uint32, h.Levels)
	for i := range h.levelOfs {
		h.levelOfs[i] = be(data, headerFixedSize+4*i, 4)
	}

	if int(h.DataSize) > len(data) {
		return nil, fmt.Errorf("%w: data size %d exceeds buffer %d", ErrTruncated, h.DataSize, len(data))
	}

	return h, nil
}

// LevelDims returns the pixel dimensions of a mip level.
func (h *Header) LevelDims(level int) (width, height int) {
	width = max(int(h.Width)>>level, 1)
	height = max(int(h.Height)>>level, 1)
	return width, height
}

// levelRange returns the byte range of one level's chunk stream.
func (h *Header) levelRange(level int) (start, end uint32, err error) {
	if level < 0 || level >= len(h.levelOfs) {
		return 0, 0, fmt.Errorf("%w: level %d of %d", ErrCorrupt, level, len(h.levelOfs))
	}
	start = h.levelOfs[level]
	end = h.DataSize
	if level+1 < len(h.levelOfs) {
		end = h.levelOfs[level+1]
	}
	if start > end {
		return 0, 0, fmt.Errorf("%w: level %d offsets reversed", ErrCorrupt, level)
	}
	return start, end, nil
}

// IsCRN reports whether data begins with the CRN signature.
func IsCRN(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x48 && data[1] == 0x78
}
