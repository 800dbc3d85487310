// Package background selects how the background of a tile is removed before
// the shared cleanup and resampling stages run.
//
// Four strategies exist: the local near-black flood fill, an external
// segmentation service that returns a finished cutout, the same service
// returning only an alpha mask that is composited locally, and a no-op.
// The external service is reached only through the Service interface.
package background

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/common"
)

// Mode names a background removal strategy.
type Mode string

const (
	// EdgeFlood removes the border-connected near-black matte locally.
	EdgeFlood Mode = "edge"
	// Cutout asks the segmentation service for a finished RGBA cutout.
	Cutout Mode = "rembg"
	// MaskComposite asks the segmentation service for an alpha mask and
	// composites it into the tile.
	MaskComposite Mode = "rembg_mask"
	// None leaves the tile untouched.
	None Mode = "none"
)

var modeAliases = map[string]Mode{
	"edge":            EdgeFlood,
	"edge-flood":      EdgeFlood,
	"rembg":           Cutout,
	"external-cutout": Cutout,
	"rembg_mask":      MaskComposite,
	"external-mask":   MaskComposite,
	"none":            None,
}

// ParseMode resolves a configured mode name or one of its aliases. An empty
// name selects EdgeFlood.
func ParseMode(name string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return EdgeFlood, nil
	}
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	return "", errors.Wrapf(common.ErrConfiguration, "unsupported background mode %q", name)
}

// External reports whether the mode needs a segmentation service.
func (m Mode) External() bool {
	return m == Cutout || m == MaskComposite
}
