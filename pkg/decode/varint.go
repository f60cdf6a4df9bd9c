package decode

import "fmt"

// ReadVarint reads a base-128 little-endian varint (7 data bits plus a
// continuation bit per byte) starting at *offset and advances *offset past
// the consumed bytes. A buffer that ends mid-value yields ErrUnexpectedEOF;
// there is no byte-count bound beyond the buffer length.
func ReadVarint(data []byte, offset *int) (uint32, error) {
	var v uint32
	var shift uint
	for {
		if *offset >= len(data) {
			return 0, fmt.Errorf("%w: varint at offset %d", ErrUnexpectedEOF, *offset)
		}
		b := data[*offset]
		*offset++
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// AppendVarint appends the base-128 encoding of v to dst.
func AppendVarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
