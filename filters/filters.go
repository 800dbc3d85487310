// Package filters holds the optional per-pixel cleanup passes that run after
// background removal. Each filter is a pure function: it never mutates its
// input and returns a new origin-zero buffer, so filters can be chained in any
// order.
package filters

import (
	"image"

	"github.com/nvr-ai/emotes/grid"
	"github.com/nvr-ai/emotes/images"
)

// Defaults used when a pack enables a filter without overriding its thresholds.
const (
	DefaultDematteMinAlpha        = 0.05
	DefaultFringeColorThreshold   = 16
	DefaultFringeAlphaThreshold   = 200
	DefaultEdgeBlackThreshold     = 30
	DefaultNeighborAlphaThreshold = 10
)

// Dematte divides the color of every partially transparent pixel by its
// alpha, undoing a composite over a black matte. Alpha is floored at
// minAlpha before dividing and results are truncated and clamped to 255.
// The arithmetic is single precision, so results match float32 image
// tooling bit for bit. Opaque and fully transparent pixels are copied
// unchanged.
//
// Arguments:
//   - img: The source tile.
//   - minAlpha: Normalized alpha floor used as the divisor for faint pixels.
//
// Returns:
//   - A new buffer with un-matted color.
func Dematte(img *image.NRGBA, minAlpha float64) *image.NRGBA {
	out := images.Clone(img)
	floor := float32(minAlpha)
	for i := 0; i < len(out.Pix); i += 4 {
		a := out.Pix[i+3]
		if a == 0 || a == 255 {
			continue
		}
		alpha := max(float32(a)/255, floor)
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = truncUint8(float32(out.Pix[i+c]) / alpha)
		}
	}
	return out
}

// DropDarkFringe makes fully transparent every pixel whose three color
// channels are all below colorThreshold and whose alpha is below
// alphaThreshold. Opaque dark pixels such as outlines survive as long as their
// alpha is at least alphaThreshold.
func DropDarkFringe(img *image.NRGBA, colorThreshold, alphaThreshold int) *image.NRGBA {
	out := images.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4 : i+4]
		if int(px[0]) < colorThreshold && int(px[1]) < colorThreshold && int(px[2]) < colorThreshold &&
			int(px[3]) < alphaThreshold {
			px[3] = 0
		}
	}
	return out
}

// ClearEdgeBlack makes fully transparent every visible pixel whose color
// channels are all at most colorThreshold and that touches, in any of its 8
// neighbors, a pixel with alpha at most neighborAlpha. Cells outside the
// buffer count as transparent neighbors. All decisions are taken against the
// input, so clearing one pixel never cascades into the next.
func ClearEdgeBlack(img *image.NRGBA, colorThreshold, neighborAlpha int) *image.NRGBA {
	src := images.Clone(img)
	out := images.Clone(img)
	b := src.Bounds()
	g := grid.New(b.Dx(), b.Dy())

	transparent := func(j int) bool {
		return int(src.Pix[j*4+3]) <= neighborAlpha
	}

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			i := g.Index(x, y)
			px := src.Pix[i*4 : i*4+4 : i*4+4]
			if px[3] == 0 ||
				int(px[0]) > colorThreshold || int(px[1]) > colorThreshold || int(px[2]) > colorThreshold {
				continue
			}

			exposed := false
			g.Neighbors8(x, y, func(j int, ok bool) {
				if !ok || transparent(j) {
					exposed = true
				}
			})
			if exposed {
				out.Pix[i*4+3] = 0
			}
		}
	}
	return out
}

// truncUint8 converts v to a byte, dropping the fraction and saturating at
// both ends.
func truncUint8(v float32) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
