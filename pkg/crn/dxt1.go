package crn

// DXT1ToRGBA decompresses DXT1 blocks (8 bytes per 4x4 block, row-major) to
// tightly packed RGBA bytes. The block decompressor's natural packed-word
// output is BGRA-ordered; the channel order is corrected here so callers get
// bytes usable directly as RGBA.
func DXT1ToRGBA(blocks []byte, blocksX, blocksY, width, height int) []byte {
	out := make([]byte, width*height*4)

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			o := (by*blocksX + bx) * 8
			if o+8 > len(blocks) {
				return out
			}

			c0 := uint32(blocks[o]) | uint32(blocks[o+1])<<8
			c1 := uint32(blocks[o+2]) | uint32(blocks[o+3])<<8
			sel := uint32(blocks[o+4]) | uint32(blocks[o+5])<<8 |
				uint32(blocks[o+6])<<16 | uint32(blocks[o+7])<<24

			var colors [4][4]byte
			colors[0] = expand565(c0)
			colors[1] = expand565(c1)
			if c0 > c1 {
				colors[2] = lerpColor(colors[0], colors[1], 2, 1)
				colors[3] = lerpColor(colors[0], colors[1], 1, 2)
			} else {
				colors[2] = lerpColor(colors[0], colors[1], 1, 1)
				colors[3] = [4]byte{0, 0, 0, 0} // 3-color mode: transparent black
			}

			for py := 0; py < 4; py++ {
				y := by*4 + py
				if y >= height {
					break
				}
				for px := 0; px < 4; px++ {
					x := bx*4 + px
					if x >= width {
						continue
					}
					c := colors[sel>>(2*(py*4+px))&3]
					dst := (y*width + x) * 4
					out[dst+0] = c[0]
					out[dst+1] = c[1]
					out[dst+2] = c[2]
					out[dst+3] = c[3]
				}
			}
		}
	}

	return out
}

// expand565 widens a packed 565 color to RGBA bytes, replicating the high
// bits into the low bits.
func expand565(c uint32) [4]byte {
	r := byte(c >> 11 & 31)
	g := byte(c >> 5 & 63)
	b := byte(c & 31)
	return [4]byte{
		r<<3 | r>>2,
		g<<2 | g>>4,
		b<<3 | b>>2,
		255,
	}
}

func lerpColor(a, b [4]byte, wa, wb int) [4]byte {
	w := wa + wb
	return [4]byte{
		byte((int(a[0])*wa + int(b[0])*wb) / w),
		byte((int(a[1])*wa + int(b[1])*wb) / w),
		byte((int(a[2])*wa + int(b[2])*wb) / w),
		255,
	}
}
