// Package decode implements the packed binary codecs of the rocktree wire
// format: base-128 varints, delta-coded vertex and texture-coordinate planes,
// triangle strips, octant masks with layer bounds, oriented bounding boxes,
// octahedral normal tables and texture payloads.
//
// Every decoder validates its input and returns a typed error for malformed
// data; nothing is silently truncated or zero-filled.
package decode

import "errors"

// Decode errors.
var (
	ErrBufferTooSmall   = errors.New("buffer too small")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrUnexpectedEOF    = errors.New("unexpected end of buffer")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)
