// Package resample scales RGBA tiles without the dark halos that appear when
// straight (non-premultiplied) color is filtered next to transparent pixels.
//
// The buffer is premultiplied into 16-bit RGBA, resampled with the selected
// kernel and divided back out by alpha. Working at 16 bits keeps the
// premultiply/un-premultiply round trip exact for every 8-bit pixel with
// non-zero alpha.
package resample

import (
	"image"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/nvr-ai/emotes/common"
)

// Filter names a resampling kernel.
type Filter string

const (
	Lanczos3          Filter = "lanczos3"
	Lanczos2          Filter = "lanczos2"
	Bicubic           Filter = "bicubic"
	MitchellNetravali Filter = "mitchell"
	Bilinear          Filter = "bilinear"
	NearestNeighbor   Filter = "nearest"
	CatmullRom        Filter = "catmullrom"
	ApproxBiLinear    Filter = "approx-bilinear"
)

// DefaultFilter is used when a pack does not choose one.
const DefaultFilter = Lanczos3

// Filters lists every supported kernel.
var Filters = []Filter{
	Lanczos3, Lanczos2, Bicubic, MitchellNetravali, Bilinear, NearestNeighbor, CatmullRom, ApproxBiLinear,
}

var nfntKernels = map[Filter]resize.InterpolationFunction{
	Lanczos3:          resize.Lanczos3,
	Lanczos2:          resize.Lanczos2,
	Bicubic:           resize.Bicubic,
	MitchellNetravali: resize.MitchellNetravali,
	Bilinear:          resize.Bilinear,
	NearestNeighbor:   resize.NearestNeighbor,
}

var drawKernels = map[Filter]xdraw.Scaler{
	CatmullRom:     xdraw.CatmullRom,
	ApproxBiLinear: xdraw.ApproxBiLinear,
}

// ParseFilter resolves a filter name, case-insensitively. An empty name
// selects DefaultFilter.
func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return DefaultFilter, nil
	}
	if _, ok := nfntKernels[f]; ok {
		return f, nil
	}
	if _, ok := drawKernels[f]; ok {
		return f, nil
	}
	return "", errors.Wrapf(common.ErrConfiguration, "unknown resample filter %q", name)
}

// Resize scales img to width x height with alpha-correct filtering.
//
// Arguments:
//   - img: The source tile. It is not modified.
//   - width: Target width in pixels, > 0.
//   - height: Target height in pixels, > 0.
//   - filter: The resampling kernel.
//
// Returns:
//   - A new origin-zero buffer. Pixels whose resulting alpha is 0 have RGB 0.
//   - An error wrapping common.ErrConfiguration for bad sizes or filters.
//
// @example
//
//	out, err := resample.Resize(tile, 128, 128, resample.Lanczos3)
func Resize(img *image.NRGBA, width, height int, filter Filter) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(common.ErrConfiguration, "invalid target size %dx%d", width, height)
	}

	premul := Premultiply(img)

	if interp, ok := nfntKernels[filter]; ok {
		out := resize.Resize(uint(width), uint(height), premul, interp)
		return Unpremultiply(toRGBA64(out)), nil
	}

	if scaler, ok := drawKernels[filter]; ok {
		dst := image.NewRGBA64(image.Rect(0, 0, width, height))
		scaler.Scale(dst, dst.Bounds(), premul, premul.Bounds(), xdraw.Src, nil)
		return Unpremultiply(dst), nil
	}

	return nil, errors.Wrapf(common.ErrConfiguration, "unknown resample filter %q", filter)
}

// Premultiply converts img into an origin-zero 16-bit premultiplied buffer.
func Premultiply(img *image.NRGBA) *image.RGBA64 {
	b := img.Bounds()
	dst := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()*4]
		out := dst.Pix[y*dst.Stride:][:b.Dx()*8]
		for x := 0; x < b.Dx(); x++ {
			s := src[x*4 : x*4+4 : x*4+4]
			a := uint32(s[3]) * 0x101
			put16(out[x*8+6:], a)
			for c := 0; c < 3; c++ {
				v := uint32(s[c]) * 0x101
				put16(out[x*8+c*2:], (v*a+0xffff/2)/0xffff)
			}
		}
	}
	return dst
}

// Unpremultiply converts a 16-bit premultiplied buffer back into 8-bit
// straight alpha. Color is divided by alpha with rounding and clamped; pixels
// whose 8-bit alpha rounds to 0 become fully transparent black.
func Unpremultiply(img *image.RGBA64) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()*8]
		out := dst.Pix[y*dst.Stride:][:b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			a := get16(src[x*8+6:])
			a8 := to8(a)
			if a8 == 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				p := min(get16(src[x*8+c*2:]), a)
				out[x*4+c] = to8((p*0xffff + a/2) / a)
			}
			out[x*4+3] = a8
		}
	}
	return dst
}

// toRGBA64 returns img as *image.RGBA64. nfnt/resize returns its input when
// the size is unchanged and an *image.RGBA64 otherwise; any other type is
// converted.
func toRGBA64(img image.Image) *image.RGBA64 {
	if rgba, ok := img.(*image.RGBA64); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return dst
}

func put16(b []uint8, v uint32) {
	b[0] = uint8(v >> 8)
	b[1] = uint8(v)
}

func get16(b []uint8) uint32 {
	return uint32(b[0])<<8 | uint32(b[1])
}

// to8 rounds a 16-bit channel to 8 bits.
func to8(v uint32) uint8 {
	return uint8((v*0xff + 0xffff/2) / 0xffff)
}
