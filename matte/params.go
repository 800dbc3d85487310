// Package matte - Near-black matte removal for sprite sheet tiles.
//
// The pipeline is: border-seeded flood fill marks the background, a distance
// field from that background selects a thin feather band along the subject's
// edge, and the band is un-matted against the color of the nearest solid
// foreground pixel.
package matte

import (
	"github.com/pkg/errors"
)

// Params configures SegmentAndClean. The zero value is not useful; start from
// DefaultParams.
type Params struct {
	// Threshold is the largest channel value (0-255) still considered near-black.
	Threshold int `json:"threshold" yaml:"threshold"`
	// FeatherRadius is the width in pixels of the band that gets decontaminated.
	// Zero or less disables feathering.
	FeatherRadius int `json:"featherRadius" yaml:"featherRadius"`
	// DecontamFloor is the estimated alpha (0-1) at or above which a band pixel
	// is considered clean and left alone.
	DecontamFloor float64 `json:"decontamFloor" yaml:"decontamFloor"`
	// MinAlpha is the lowest alpha (0-1) a decontaminated pixel can receive.
	MinAlpha float64 `json:"minAlpha" yaml:"minAlpha"`
}

// DefaultParams returns the parameters used when a pack does not override them.
func DefaultParams() Params {
	return Params{
		Threshold:     5,
		FeatherRadius: 2,
		DecontamFloor: 0.98,
		MinAlpha:      0.05,
	}
}

// Validate range-checks every field.
func (p Params) Validate() error {
	if p.Threshold < 0 || p.Threshold > 255 {
		return errors.Errorf("threshold %d out of range [0, 255]", p.Threshold)
	}
	if p.FeatherRadius < 0 {
		return errors.Errorf("feather radius %d must not be negative", p.FeatherRadius)
	}
	if p.DecontamFloor < 0 || p.DecontamFloor > 1 {
		return errors.Errorf("decontamination floor %g out of range [0, 1]", p.DecontamFloor)
	}
	if p.MinAlpha <= 0 || p.MinAlpha > 1 {
		return errors.Errorf("minimum alpha %g out of range (0, 1]", p.MinAlpha)
	}
	return nil
}

// Report summarizes what one SegmentAndClean call did to a tile.
type Report struct {
	// Background is the number of pixels classified as background.
	Background int
	// Solid is the number of foreground pixels deeper than the feather band.
	Solid int
	// Feathered is the number of foreground pixels inside the feather band.
	Feathered int
	// Decontaminated is the number of band pixels that were rewritten.
	Decontaminated int
	// Skipped is the number of band pixels left unchanged because no usable
	// reference channel existed.
	Skipped int
	// Unsegmented is set when nothing was classified as background, so the
	// distance field was never built.
	Unsegmented bool
}
