package matte

import (
	"image"

	"github.com/nvr-ai/emotes/grid"
)

// pixels gives linear-index access to an NRGBA buffer of any bounds.
type pixels struct {
	img *image.NRGBA
	g   grid.Grid
}

func newPixels(img *image.NRGBA) pixels {
	b := img.Bounds()
	return pixels{img: img, g: grid.New(b.Dx(), b.Dy())}
}

// off returns the Pix offset of cell i.
func (p pixels) off(i int) int {
	x, y := p.g.XY(i)
	return p.img.PixOffset(p.img.Rect.Min.X+x, p.img.Rect.Min.Y+y)
}

// nearBlack reports whether cell i is visible and all color channels are at
// most threshold. Fully transparent pixels are never near-black.
func (p pixels) nearBlack(i, threshold int) bool {
	px := p.img.Pix[p.off(i):][:4]
	if px[3] == 0 {
		return false
	}
	t := uint8(threshold)
	return px[0] <= t && px[1] <= t && px[2] <= t
}

// Segment marks the background of img: every near-black pixel connected to the
// outer border through other near-black pixels (4-connected). The alpha of
// every background pixel is set to 0; color channels are left as they were.
// Dark pixels enclosed by foreground are not reachable and keep their alpha.
//
// Arguments:
//   - img: The tile, mutated in place.
//   - threshold: Largest channel value considered near-black, 0-255.
//
// Returns:
//   - The background mask.
func Segment(img *image.NRGBA, threshold int) *grid.Mask {
	px := newPixels(img)
	mask := grid.NewMask(px.g)
	if threshold < 0 {
		return mask
	}
	threshold = min(threshold, 255)

	grid.Expand(px.g,
		func(i int) bool {
			if !px.g.OnBorder(i) || !px.nearBlack(i, threshold) {
				return false
			}
			mask.Set(i)
			return true
		},
		func(_, to int) bool {
			if mask.Get(to) || !px.nearBlack(to, threshold) {
				return false
			}
			mask.Set(to)
			return true
		},
	)

	for i := 0; i < px.g.Len(); i++ {
		if mask.Get(i) {
			img.Pix[px.off(i)+3] = 0
		}
	}

	return mask
}
