package technique

import (
	"image"
	"image/draw"
)

// pixelFormat identifies the concrete in-memory layout used while blurring.
type pixelFormat int

const (
	formatRGBA pixelFormat = iota
	formatNRGBA
	formatRGBA64
	formatNRGBA64
	formatGray
	formatGray16
)

// formatOf picks the working layout for img. Grayscale stays grayscale and
// the packed RGBA variants keep their type; other color models are widened
// to RGBA.
func formatOf(img image.Image) pixelFormat {
	switch img.(type) {
	case *image.Gray:
		return formatGray
	case *image.Gray16:
		return formatGray16
	case *image.NRGBA:
		return formatNRGBA
	case *image.RGBA64:
		return formatRGBA64
	case *image.NRGBA64:
		return formatNRGBA64
	default:
		return formatRGBA
	}
}

// pixBuffer is a view over the Pix slice shared by the standard image types.
type pixBuffer struct {
	pix    []uint8
	stride int
	bpp    int
}

func (f pixelFormat) newImage(r image.Rectangle) draw.Image {
	switch f {
	case formatGray:
		return image.NewGray(r)
	case formatGray16:
		return image.NewGray16(r)
	case formatNRGBA:
		return image.NewNRGBA(r)
	case formatRGBA64:
		return image.NewRGBA64(r)
	case formatNRGBA64:
		return image.NewNRGBA64(r)
	default:
		return image.NewRGBA(r)
	}
}

func bufferOf(img draw.Image) pixBuffer {
	switch m := img.(type) {
	case *image.Gray:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 1}
	case *image.Gray16:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 2}
	case *image.NRGBA:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 4}
	case *image.RGBA64:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 8}
	case *image.NRGBA64:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 8}
	case *image.RGBA:
		return pixBuffer{pix: m.Pix, stride: m.Stride, bpp: 4}
	}
	panic("technique: unsupported buffer type")
}

// translate moves img so that its bounds start at origin without copying pixels.
func translate(img draw.Image, origin image.Point) image.Image {
	switch m := img.(type) {
	case *image.Gray:
		m.Rect = m.Rect.Add(origin)
	case *image.Gray16:
		m.Rect = m.Rect.Add(origin)
	case *image.NRGBA:
		m.Rect = m.Rect.Add(origin)
	case *image.RGBA64:
		m.Rect = m.Rect.Add(origin)
	case *image.NRGBA64:
		m.Rect = m.Rect.Add(origin)
	case *image.RGBA:
		m.Rect = m.Rect.Add(origin)
	}
	return img
}

// reflect101 maps an out-of-range coordinate back into [0, n) mirroring
// around the edge pixels without repeating them: gfedcb|abcdefgh|gfedcba.
func reflect101(p, n int) int {
	if n == 1 {
		return 0
	}
	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		} else {
			p = 2*(n-1) - p
		}
	}
	return p
}

// padReflect101 copies img into a new image of the given format, grown by
// radius pixels on every side. Bounds of the result start at (0, 0).
func padReflect101(img image.Image, format pixelFormat, radius int) draw.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	base := format.newImage(image.Rect(0, 0, w, h))
	draw.Draw(base, base.Bounds(), img, b.Min, draw.Src)
	if radius == 0 {
		return base
	}

	padded := format.newImage(image.Rect(0, 0, w+2*radius, h+2*radius))
	src := bufferOf(base)
	dst := bufferOf(padded)
	bpp := src.bpp

	for py := 0; py < h+2*radius; py++ {
		sy := reflect101(py-radius, h)
		srcRow := src.pix[sy*src.stride : sy*src.stride+w*bpp]
		dstRow := dst.pix[py*dst.stride : py*dst.stride+(w+2*radius)*bpp]

		copy(dstRow[radius*bpp:], srcRow)
		for i := 0; i < radius; i++ {
			left := reflect101(i-radius, w)
			copy(dstRow[i*bpp:(i+1)*bpp], srcRow[left*bpp:(left+1)*bpp])

			right := reflect101(w+i, w)
			at := (radius + w + i) * bpp
			copy(dstRow[at:at+bpp], srcRow[right*bpp:(right+1)*bpp])
		}
	}
	return padded
}
