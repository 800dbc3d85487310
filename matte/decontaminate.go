package matte

import (
	"image"
	"math"

	"github.com/nvr-ai/emotes/grid"
	"github.com/nvr-ai/emotes/images"
)

// Decontaminate un-mattes the feather band of img.
//
// Foreground pixels further than radius from the background are solid and
// donate their color. Each band pixel (distance 1..radius) receives the color
// of its nearest solid pixel by level-order propagation restricted to the
// band. A band pixel observed as c over a black matte with true color t has
// alpha ≈ c/t; the estimate is the largest ratio over channels where t > 0,
// because the channel least suppressed by the matte is the most trustworthy.
// Estimates at or above floor leave the pixel alone. Otherwise alpha is
// clamped to [minAlpha, 1] and the color is recovered as c/alpha.
//
// Fully transparent foreground pixels neither donate color nor get rewritten.
func Decontaminate(img *image.NRGBA, mask *grid.Mask, field *grid.DistanceField, p Params) Report {
	px := newPixels(img)
	n := px.g.Len()
	radius := p.FeatherRadius

	var rep Report
	if radius <= 0 || n == 0 {
		return rep
	}

	inBand := func(i int) bool {
		if mask.Get(i) {
			return false
		}
		d := field.At(i)
		return d > 0 && d <= radius
	}

	nearest := make([][3]uint8, n)
	resolved := make([]bool, n)

	grid.Expand(px.g,
		func(i int) bool {
			if mask.Get(i) || field.At(i) <= radius {
				return false
			}
			o := px.off(i)
			if img.Pix[o+3] == 0 {
				return false
			}
			rep.Solid++
			copy(nearest[i][:], img.Pix[o:o+3])
			resolved[i] = true
			return true
		},
		func(from, to int) bool {
			if resolved[to] || !inBand(to) {
				return false
			}
			nearest[to] = nearest[from]
			resolved[to] = true
			return true
		},
	)

	for i := 0; i < n; i++ {
		if !inBand(i) {
			continue
		}
		rep.Feathered++
		if !resolved[i] {
			continue
		}
		o := px.off(i)
		c := img.Pix[o : o+4 : o+4]
		if c[3] == 0 {
			continue
		}

		alpha, ok := estimateAlpha(c[:3], nearest[i])
		if !ok {
			rep.Skipped++
			continue
		}
		if alpha >= p.DecontamFloor {
			continue
		}
		alpha = images.Clamp(alpha, p.MinAlpha, 1)

		for ch := 0; ch < 3; ch++ {
			if c[ch] > 0 {
				c[ch] = images.ClampUint8(float64(c[ch]) / alpha)
			}
		}
		c[3] = uint8(math.Round(alpha * 255))
		rep.Decontaminated++
	}

	return rep
}

// estimateAlpha returns the largest observed/reference ratio over the channels
// whose reference is non-zero. ok is false when no channel is usable.
func estimateAlpha(observed []uint8, reference [3]uint8) (alpha float64, ok bool) {
	for ch := 0; ch < 3; ch++ {
		if reference[ch] == 0 {
			continue
		}
		r := float64(observed[ch]) / float64(reference[ch])
		if !ok || r > alpha {
			alpha = r
		}
		ok = true
	}
	return alpha, ok
}
