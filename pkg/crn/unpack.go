package crn

import "fmt"

// Chunk encodings: each chunk covers 2x2 DXT1 blocks carved into 1-4
// endpoint tiles. The per-encoding table maps block position (row-major)
// to its tile index.
var (
	chunkEncodingNumTiles = [8]int{1, 2, 2, 3, 3, 3, 3, 4}
	chunkEncodingTiles    = [8][4]uint8{
		{0, 0, 0, 0},
		{0, 0, 1, 1},
		{0, 1, 0, 1},
		{0, 0, 1, 2},
		{1, 2, 0, 0},
		{0, 1, 0, 2},
		{1, 0, 2, 0},
		{0, 1, 2, 3},
	}

	// dxt1FromLinear converts a linear-ramp 2-bit selector (0=color0 ..
	// 3=color1) to the DXT1 on-disk selector encoding.
	dxt1FromLinear = [4]uint32{0, 2, 3, 1}
)

// Decoder holds the shared tables and palettes of one CRN file.
type Decoder struct {
	header *Header
	data   []byte

	chunkEncodingModel *huffmanModel
	endpointDeltaModel *huffmanModel
	selectorDeltaModel *huffmanModel

	colorEndpoints []uint32 // two packed 565 colors per entry
	colorSelectors []uint32 // 16 2-bit DXT1 selectors per entry
}

// NewDecoder parses the header and decodes the shared Huffman tables and
// color palettes.
func NewDecoder(data []byte) (*Decoder, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	d := &Decoder{header: h, data: data}
	if err := d.initTables(); err != nil {
		return nil, err
	}
	if err := d.decodeColorEndpoints(); err != nil {
		return nil, err
	}
	if err := d.decodeColorSelectors(); err != nil {
		return nil, err
	}
	return d, nil
}

// Header returns the parsed container header.
func (d *Decoder) Header() *Header {
	return d.header
}

func (d *Decoder) section(ofs, size uint32, name string) ([]byte, error) {
	end := uint64(ofs) + uint64(size)
	if end > uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: %s section [%d:%d]", ErrTruncated, name, ofs, end)
	}
	return d.data[ofs:end], nil
}

func (d *Decoder) initTables() error {
	sec, err := d.section(d.header.tablesOfs, d.header.tablesSize, "tables")
	if err != nil {
		return err
	}
	r := newBitReader(sec)

	if d.chunkEncodingModel, err = receiveModel(r); err != nil {
		return fmt.Errorf("chunk encoding model: %w", err)
	}
	if d.header.colorEndpoints.Count == 0 {
		return fmt.Errorf("%w: no color endpoints", ErrCorrupt)
	}
	if d.endpointDeltaModel, err = receiveModel(r); err != nil {
		return fmt.Errorf("endpoint delta model: %w", err)
	}
	if d.selectorDeltaModel, err = receiveModel(r); err != nil {
		return fmt.Errorf("selector delta model: %w", err)
	}
	return nil
}

// decodeColorEndpoints DPCM-decodes the endpoint palette. Each entry packs
// two 565 colors; component deltas are Huffman coded with separate models
// for the 5- and 6-bit channels.
func (d *Decoder) decodeColorEndpoints() error {
	pal := d.header.colorEndpoints
	sec, err := d.section(pal.Ofs, pal.Size, "color endpoints")
	if err != nil {
		return err
	}
	r := newBitReader(sec)

	dm5, err := receiveModel(r)
	if err != nil {
		return fmt.Errorf("endpoint 5-bit model: %w", err)
	}
	dm6, err := receiveModel(r)
	if err != nil {
		return fmt.Errorf("endpoint 6-bit model: %w", err)
	}

	d.colorEndpoints = make([]uint32, pal.Count)
	var a, b, c, e, f, g uint32
	for i := range d.colorEndpoints {
		da, err := dm5.decode(r)
		if err != nil {
			return err
		}
		db, err := dm6.decode(r)
		if err != nil {
			return err
		}
		dc, err := dm5.decode(r)
		if err != nil {
			return err
		}
		de, err := dm5.decode(r)
		if err != nil {
			return err
		}
		df, err := dm6.decode(r)
		if err != nil {
			return err
		}
		dg, err := dm5.decode(r)
		if err != nil {
			return err
		}

		a = (a + da) & 31
		b = (b + db) & 63
		c = (c + dc) & 31
		e = (e + de) & 31
		f = (f + df) & 63
		g = (g + dg) & 31

		d.colorEndpoints[i] = c | b<<5 | a<<11 | (g|f<<5|e<<11)<<16
	}
	return nil
}

// decodeColorSelectors DPCM-decodes the selector palette. Deltas arrive as
// pixel pairs (7*7 symbols, each delta in -3..3) applied in linear selector
// space, then translated to the DXT1 selector encoding.
func (d *Decoder) decodeColorSelectors() error {
	pal := d.header.colorSelectors
	sec, err := d.section(pal.Ofs, pal.Size, "color selectors")
	if err != nil {
		return err
	}
	r := newBitReader(sec)

	dm, err := receiveModel(r)
	if err != nil {
		return fmt.Errorf("selector model: %w", err)
	}

	d.colorSelectors = make([]uint32, pal.Count)
	var cur [16]int
	for i := range d.colorSelectors {
		for j := 0; j < 16; j += 2 {
			sym, err := dm.decode(r)
			if err != nil {
				return err
			}
			cur[j] = (cur[j] + int(sym)%7 - 3) & 3
			cur[j+1] = (cur[j+1] + int(sym)/7 - 3) & 3
		}
		var sel uint32
		for j := 0; j < 16; j++ {
			sel |= dxt1FromLinear[cur[j]] << (2 * j)
		}
		d.colorSelectors[i] = sel
	}
	return nil
}

// UnpackLevel decodes one mip level to DXT1 blocks (8 bytes per 4x4 block,
// blocks row-major). It returns the block data and the level's dimensions
// in blocks.
func (d *Decoder) UnpackLevel(level int) (blocks []byte, blocksX, blocksY int, err error) {
	start, end, err := d.header.levelRange(level)
	if err != nil {
		return nil, 0, 0, err
	}
	sec, err := d.section(start, end-start, "level")
	if err != nil {
		return nil, 0, 0, err
	}

	width, height := d.header.LevelDims(level)
	blocksX = (width + 3) / 4
	blocksY = (height + 3) / 4
	chunksX := (blocksX + 1) / 2
	chunksY := (blocksY + 1) / 2

	blocks = make([]byte, blocksX*blocksY*8)
	r := newBitReader(sec)

	numEndpoints := uint32(len(d.colorEndpoints))
	numSelectors := uint32(len(d.colorSelectors))
	var prevEndpoint, prevSelector uint32
	var tileEndpoints [4]uint32

	for face := 0; face < int(d.header.Faces); face++ {
		for cy := 0; cy < chunksY; cy++ {
			for cx := 0; cx < chunksX; cx++ {
				encoding, err := d.chunkEncodingModel.decode(r)
				if err != nil {
					return nil, 0, 0, err
				}
				if encoding >= 8 {
					return nil, 0, 0, fmt.Errorf("%w: chunk encoding %d", ErrCorrupt, encoding)
				}

				numTiles := chunkEncodingNumTiles[encoding]
				tiles := chunkEncodingTiles[encoding]

				for t := 0; t < numTiles; t++ {
					delta, err := d.endpointDeltaModel.decode(r)
					if err != nil {
						return nil, 0, 0, err
					}
					prevEndpoint = (prevEndpoint + delta) % numEndpoints
					tileEndpoints[t] = d.colorEndpoints[prevEndpoint]
				}

				for by := 0; by < 2; by++ {
					for bx := 0; bx < 2; bx++ {
						delta, err := d.selectorDeltaModel.decode(r)
						if err != nil {
							return nil, 0, 0, err
						}
						prevSelector = (prevSelector + delta) % numSelectors

						x := cx*2 + bx
						y := cy*2 + by
						if x >= blocksX || y >= blocksY {
							continue // edge chunk, block outside the image
						}

						endpoint := tileEndpoints[tiles[by*2+bx]]
						selector := d.colorSelectors[prevSelector]

						o := (y*blocksX + x) * 8
						blocks[o+0] = byte(endpoint)
						blocks[o+1] = byte(endpoint >> 8)
						blocks[o+2] = byte(endpoint >> 16)
						blocks[o+3] = byte(endpoint >> 24)
						blocks[o+4] = byte(selector)
						blocks[o+5] = byte(selector >> 8)
						blocks[o+6] = byte(selector >> 16)
						blocks[o+7] = byte(selector >> 24)
					}
				}
			}
		}
	}

	return blocks, blocksX, blocksY, nil
}

// DecodeToRGBA decodes mip level 0 straight to tightly packed RGBA pixels.
func DecodeToRGBA(data []byte) (pixels []byte, width, height int, err error) {
	d, err := NewDecoder(data)
	if err != nil {
		return nil, 0, 0, err
	}

	blocks, blocksX, blocksY, err := d.UnpackLevel(0)
	if err != nil {
		return nil, 0, 0, err
	}

	width, height = d.header.LevelDims(0)
	pixels = DXT1ToRGBA(blocks, blocksX, blocksY, width, height)
	return pixels, width, height, nil
}
