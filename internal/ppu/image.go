package ppu

import (
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// FrameImage wraps a composited RGBA frame, copying it so the caller may reuse
// rgba.
func FrameImage(rgba []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	copy(img.Pix, rgba)
	return img
}

// Scale enlarges img by an integer factor without smoothing.
func Scale(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WritePNG encodes a composited frame at the given scale.
func WritePNG(w io.Writer, rgba []byte, scale int) error {
	return png.Encode(w, Scale(FrameImage(rgba), scale))
}
