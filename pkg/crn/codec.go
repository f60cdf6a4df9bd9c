package crn

import "fmt"

// bitReader consumes the CRN symbol streams most-significant-bit first.
// Reads past the end of the buffer return zero bits, matching the reference
// decoder's behavior on its padded tail.
type bitReader struct {
	data []byte
	pos  int
	buf  uint64
	n    uint
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) fill() {
	for r.n <= 56 {
		var b byte
		if r.pos < len(r.data) {
			b = r.data[r.pos]
			r.pos++
		}
		r.buf = r.buf<<8 | uint64(b)
		r.n += 8
	}
}

// readBits returns the next count bits (count <= 32).
func (r *bitReader) readBits(count uint) uint32 {
	if count == 0 {
		return 0
	}
	if r.n < count {
		r.fill()
	}
	v := uint32(r.buf >> (r.n - count) & (1<<count - 1))
	r.n -= count
	return v
}

// Code-length alphabet of the table-compression Huffman model.
const (
	maxCodeSize         = 16
	maxCodelengthCodes  = 21
	smallZeroRunCode    = 17
	largeZeroRunCode    = 18
	smallRepeatCode     = 19
	largeRepeatCode     = 20
	minSmallZeroRunSize = 3
	minLargeZeroRunSize = 11
	minSmallRepeatSize  = 3
	minLargeRepeatSize  = 7
	maxSupportedSyms    = 8192
)

// mostProbableCodelengthCodes is the transmission order of the code-length
// alphabet's own code sizes.
var mostProbableCodelengthCodes = [maxCodelengthCodes]uint8{
	smallZeroRunCode, largeZeroRunCode,
	smallRepeatCode, largeRepeatCode,
	0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15, 16,
}

// huffmanModel is a canonical prefix decoder built from per-symbol code
// sizes: codes are assigned in order of increasing length, ties broken by
// symbol index.
type huffmanModel struct {
	// per code length: first canonical code, number of codes, and the
	// offset of the first symbol of that length in sortedSyms.
	firstCode  [maxCodeSize + 1]uint32
	codeCount  [maxCodeSize + 1]uint32
	symOffset  [maxCodeSize + 1]uint32
	sortedSyms []uint32
}

func newHuffmanModel(codeSizes []uint8) (*huffmanModel, error) {
	m := &huffmanModel{}

	var countPerSize [maxCodeSize + 1]uint32
	total := uint32(0)
	for _, s := range codeSizes {
		if s > maxCodeSize {
			return nil, fmt.Errorf("%w: code size %d", ErrCorrupt, s)
		}
		if s > 0 {
			countPerSize[s]++
			total++
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: empty Huffman model", ErrCorrupt)
	}

	m.sortedSyms = make([]uint32, 0, total)
	code := uint32(0)
	offset := uint32(0)
	for size := 1; size <= maxCodeSize; size++ {
		m.firstCode[size] = code
		m.codeCount[size] = countPerSize[size]
		m.symOffset[size] = offset
		code = (code + countPerSize[size]) << 1
		offset += countPerSize[size]
	}
	// Stable bucket fill: symbols of equal length keep index order.
	var next [maxCodeSize + 1]uint32
	copy(next[:], m.symOffset[:])
	m.sortedSyms = m.sortedSyms[:total]
	for sym, s := range codeSizes {
		if s > 0 {
			m.sortedSyms[next[s]] = uint32(sym)
			next[s]++
		}
	}

	return m, nil
}

// decode reads one symbol from the bit stream.
func (m *huffmanModel) decode(r *bitReader) (uint32, error) {
	code := uint32(0)
	for size := 1; size <= maxCodeSize; size++ {
		code = code<<1 | r.readBits(1)
		if m.codeCount[size] > 0 && code >= m.firstCode[size] && code < m.firstCode[size]+m.codeCount[size] {
			return m.sortedSyms[m.symOffset[size]+code-m.firstCode[size]], nil
		}
	}
	return 0, fmt.Errorf("%w: invalid Huffman code", ErrCorrupt)
}

// receiveModel decodes a Huffman model transmitted in the stream: the symbol
// count, the code-length alphabet's 3-bit code sizes, then the run-length
// compressed per-symbol code sizes.
func receiveModel(r *bitReader) (*huffmanModel, error) {
	totalUsedSyms := int(r.readBits(14)) // total_bits(maxSupportedSyms)
	if totalUsedSyms == 0 {
		return nil, fmt.Errorf("%w: model with no symbols", ErrCorrupt)
	}
	if totalUsedSyms > maxSupportedSyms {
		return nil, fmt.Errorf("%w: %d symbols", ErrCorrupt, totalUsedSyms)
	}

	numCodelengthCodes := int(r.readBits(5))
	if numCodelengthCodes < 1 || numCodelengthCodes > maxCodelengthCodes {
		return nil, fmt.Errorf("%w: %d code-length codes", ErrCorrupt, numCodelengthCodes)
	}

	codelengthSizes := make([]uint8, maxCodelengthCodes)
	for i := 0; i < numCodelengthCodes; i++ {
		codelengthSizes[mostProbableCodelengthCodes[i]] = uint8(r.readBits(3))
	}
	codelengthModel, err := newHuffmanModel(codelengthSizes)
	if err != nil {
		return nil, err
	}

	codeSizes := make([]uint8, totalUsedSyms)
	ofs := 0
	for ofs < totalUsedSyms {
		remaining := totalUsedSyms - ofs

		code, err := codelengthModel.decode(r)
		if err != nil {
			return nil, err
		}

		switch {
		case code <= maxCodeSize:
			codeSizes[ofs] = uint8(code)
			ofs++
		case code == smallZeroRunCode:
			n := int(r.readBits(3)) + minSmallZeroRunSize
			if n > remaining {
				return nil, fmt.Errorf("%w: zero run past model end", ErrCorrupt)
			}
			ofs += n
		case code == largeZeroRunCode:
			n := int(r.readBits(7)) + minLargeZeroRunSize
			if n > remaining {
				return nil, fmt.Errorf("%w: zero run past model end", ErrCorrupt)
			}
			ofs += n
		case code == smallRepeatCode || code == largeRepeatCode:
			var n int
			if code == smallRepeatCode {
				n = int(r.readBits(2)) + minSmallRepeatSize
			} else {
				n = int(r.readBits(6)) + minLargeRepeatSize
			}
			if ofs == 0 || n > remaining {
				return nil, fmt.Errorf("%w: repeat run at model start or past end", ErrCorrupt)
			}
			prev := codeSizes[ofs-1]
			if prev == 0 {
				return nil, fmt.Errorf("%w: repeat of zero code size", ErrCorrupt)
			}
			for end := ofs + n; ofs < end; ofs++ {
				codeSizes[ofs] = prev
			}
		default:
			return nil, fmt.Errorf("%w: code-length symbol %d", ErrCorrupt, code)
		}
	}

	return newHuffmanModel(codeSizes)
}
