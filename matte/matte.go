package matte

import (
	"image"

	"github.com/nvr-ai/emotes/grid"
)

// SegmentAndClean removes the near-black matte of a tile in place: it segments
// the border-connected background, builds the distance field from it and
// decontaminates the feather band. The three steps only make sense together,
// since feathering needs the segmentation mask.
//
// When nothing is classified as background the distance field is never
// built and the tile is returned unchanged apart from segmentation.
//
// Arguments:
//   - img: The tile, owned by the caller and mutated in place.
//   - p: Validated parameters.
//
// Returns:
//   - *image.NRGBA: img, for chaining.
//   - Report: Pixel counts for diagnostics.
//
// @example
// tile, rep := SegmentAndClean(tile, DefaultParams())
func SegmentAndClean(img *image.NRGBA, p Params) (*image.NRGBA, Report) {
	mask := Segment(img, p.Threshold)

	rep := Report{Background: mask.Count()}
	if p.FeatherRadius <= 0 {
		return img, rep
	}
	if rep.Background == 0 {
		rep.Unsegmented = true
		return img, rep
	}

	field := grid.NewDistanceField(mask)
	if !field.Reached() {
		rep.Unsegmented = true
		return img, rep
	}

	dec := Decontaminate(img, mask, field, p)
	dec.Background = rep.Background
	return img, dec
}
