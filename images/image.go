// Package images - Pixel buffer helpers for the emote pipeline.
//
// A pixel buffer is an *image.NRGBA: 8-bit straight (non-premultiplied) RGBA,
// row-major, origin top-left. Every helper here returns buffers whose bounds
// start at (0, 0) so pipeline stages can index Pix directly.
package images

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// ToNRGBA returns an origin-zero *image.NRGBA copy of img. The copy never
// aliases img, so the caller owns it exclusively.
//
// Arguments:
// - img: Any decoded image.
//
// Returns:
// - A new straight-alpha RGBA buffer of the same size.
//
// @example
// buf := ToNRGBA(decoded)
func ToNRGBA(img image.Image) *image.NRGBA {
	// Going through draw would premultiply and lose color on low-alpha pixels.
	if n, ok := img.(*image.NRGBA); ok {
		return Clone(n)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return dst
}

// Clone returns an origin-zero copy of buf.
func Clone(buf *image.NRGBA) *image.NRGBA {
	b := buf.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := buf.Pix[buf.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()*4]
		copy(dst.Pix[y*dst.Stride:], src)
	}
	return dst
}

// Crop copies the rectangle r of img into a new origin-zero buffer. The part
// of r outside img stays fully transparent.
//
// @example
// tile := Crop(sheet, image.Rect(64, 0, 128, 64))
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	src := r.Intersect(img.Bounds())
	if src.Empty() {
		return dst
	}
	if n, ok := img.(*image.NRGBA); ok {
		off := src.Min.Sub(r.Min)
		for y := src.Min.Y; y < src.Max.Y; y++ {
			row := n.Pix[n.PixOffset(src.Min.X, y):][:src.Dx()*4]
			copy(dst.Pix[dst.PixOffset(off.X, off.Y+y-src.Min.Y):], row)
		}
		return dst
	}
	xdraw.Copy(dst, src.Min.Sub(r.Min), img, src, xdraw.Src, nil)
	return dst
}

// ApplyAlphaMask returns a copy of buf whose alpha channel is replaced by mask,
// resampled to buf's size first when the dimensions differ.
func ApplyAlphaMask(buf *image.NRGBA, mask *image.Gray) *image.NRGBA {
	out := Clone(buf)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	mb := mask.Bounds()
	if mb.Dx() != w || mb.Dy() != h {
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), mask, mb, xdraw.Src, nil)
		mask = scaled
		mb = mask.Bounds()
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x*4+3] = mask.Pix[mask.PixOffset(mb.Min.X+x, mb.Min.Y+y)]
		}
	}
	return out
}

// Coverage returns the fraction of pixels in buf whose alpha is non-zero.
func Coverage(buf *image.NRGBA) float64 {
	b := buf.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	visible := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if buf.Pix[buf.PixOffset(x, y)+3] != 0 {
				visible++
			}
		}
	}
	return float64(visible) / float64(total)
}
