package decode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"rocktree/pkg/crn"
)

// TextureFormat identifies the pixel layout of decoded texture bytes.
type TextureFormat int

// Decoded texture formats.
const (
	TextureRGB TextureFormat = iota + 1
	TextureRGBA
	TextureDXT1
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureRGB:
		return "rgb"
	case TextureRGBA:
		return "rgba"
	case TextureDXT1:
		return "dxt1"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// BytesPerPixel returns the byte width of one pixel, or 0 for block formats.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureRGB:
		return 3
	case TextureRGBA:
		return 4
	default:
		return 0
	}
}

// DecodeTexture detects the payload format by magic bytes (0xFFD8 for JPEG,
// "Hx" for CRN) and decodes it to tightly packed pixels. JPEG decodes to RGB;
// CRN decompresses through DXT1 to RGBA.
func DecodeTexture(data []byte) (pixels []byte, format TextureFormat, width, height int, err error) {
	switch {
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		pixels, width, height, err = DecodeJPEG(data)
		return pixels, TextureRGB, width, height, err
	case crn.IsCRN(data):
		pixels, width, height, err = crn.DecodeToRGBA(data)
		return pixels, TextureRGBA, width, height, err
	default:
		return nil, 0, 0, 0, fmt.Errorf("%w: unknown texture magic", ErrInvalidFormat)
	}
}

// DecodeJPEG decodes a JPEG payload to tightly packed RGB bytes.
func DecodeJPEG(data []byte) (pixels []byte, width, height int, err error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: jpeg: %v", ErrInvalidFormat, err)
	}

	b := img.Bounds()
	width, height = b.Dx(), b.Dy()

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	pixels = make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		src := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < width; x++ {
			copy(pixels[(y*width+x)*3:], src[x*4:x*4+3])
		}
	}
	return pixels, width, height, nil
}
