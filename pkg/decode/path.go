package decode

// PathAndFlags is the unpacked form of a node metadata path_and_flags word:
// the octree path (octant digits '0'-'7'), its depth within the owning bulk
// (1-4) and the remaining flag bits.
type PathAndFlags struct {
	Path  string
	Flags uint32
	Level int
}

// UnpackPathAndFlags splits a packed path_and_flags word. The lowest two bits
// hold level-1, the next 3*level bits hold one octant digit each (least
// significant digit first) and the remaining high bits are flags.
func UnpackPathAndFlags(packed uint32) PathAndFlags {
	level := int(packed&3) + 1
	packed >>= 2

	buf := make([]byte, level)
	for i := 0; i < level; i++ {
		buf[i] = byte('0' + (packed & 7))
		packed >>= 3
	}

	return PathAndFlags{Path: string(buf), Flags: packed, Level: level}
}

// PackPathAndFlags is the inverse of UnpackPathAndFlags, used by tests and
// tools that build synthetic metadata.
func PackPathAndFlags(path string, flags uint32) uint32 {
	level := len(path)
	packed := flags
	for i := level - 1; i >= 0; i-- {
		packed = packed<<3 | uint32(path[i]-'0')
	}
	return packed<<2 | uint32(level-1)
}
