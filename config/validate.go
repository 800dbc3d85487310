package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/common"
)

// Validate checks required fields, numeric ranges, mode and filter names,
// and the item list. Every error wraps common.ErrConfiguration.
func (p Pack) Validate() error {
	if err := p.validate(); err != nil {
		return errors.Wrapf(common.ErrConfiguration, "pack %q (%s): %v", p.ID, p.Source, err)
	}
	return nil
}

func (p Pack) validate() error {
	if err := safeID(p.ID); err != nil {
		return errors.Wrap(err, "id")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.SourceImage == "" {
		return errors.New("source_image is required")
	}
	if p.Grid.Rows <= 0 || p.Grid.Cols <= 0 {
		return errors.Errorf("grid %dx%d must have positive rows and cols", p.Grid.Rows, p.Grid.Cols)
	}
	if p.Size <= 0 {
		return errors.Errorf("size %d must be positive", p.Size)
	}
	if _, err := p.Mode(); err != nil {
		return err
	}
	if _, err := p.Filter(); err != nil {
		return err
	}
	if err := p.MatteParams().Validate(); err != nil {
		return err
	}

	byteFields := []struct {
		name string
		v    int
	}{
		{"fringe_color_threshold", p.FringeColorThreshold},
		{"fringe_alpha_threshold", p.FringeAlphaThreshold},
		{"edge_black_threshold", p.EdgeBlackThreshold},
		{"edge_alpha_neighbor_threshold", p.EdgeAlphaNeighborThreshold},
		{"rembg_foreground_threshold", p.RembgForegroundThreshold},
		{"rembg_background_threshold", p.RembgBackgroundThreshold},
	}
	for _, f := range byteFields {
		if f.v < 0 || f.v > 255 {
			return errors.Errorf("%s %d out of range [0, 255]", f.name, f.v)
		}
	}
	if p.DematteMinAlpha <= 0 || p.DematteMinAlpha > 1 {
		return errors.Errorf("dematte_min_alpha %g out of range (0, 1]", p.DematteMinAlpha)
	}
	if p.RembgErodeSize < 0 {
		return errors.Errorf("rembg_erode_size %d must not be negative", p.RembgErodeSize)
	}
	if p.RembgMaskErode < 0 {
		return errors.Errorf("rembg_mask_erode %d must not be negative", p.RembgMaskErode)
	}
	if p.IconID != "" {
		if err := safeID(p.IconID); err != nil {
			return errors.Wrap(err, "icon_id")
		}
	}

	cells := p.Grid.Rows * p.Grid.Cols
	seen := make(map[string]bool, len(p.Items))
	for pos, item := range p.Items {
		if err := safeID(item.ID); err != nil {
			return errors.Wrapf(err, "item %d id", pos)
		}
		if seen[item.ID] {
			return errors.Errorf("item %d: duplicate id %q", pos, item.ID)
		}
		seen[item.ID] = true
		if item.Name == "" {
			return errors.Errorf("item %q: name is required", item.ID)
		}
		if idx := p.ItemIndex(pos); idx < 1 || idx > cells {
			return errors.Errorf("item %q: index %d out of range [1, %d]", item.ID, idx, cells)
		}
	}
	return nil
}

// safeID rejects identifiers that cannot be used as a single path element.
func safeID(id string) error {
	switch {
	case id == "":
		return errors.New("must not be empty")
	case id == "." || id == "..":
		return errors.Errorf("%q is not a valid name", id)
	case strings.ContainsAny(id, `/\`):
		return errors.Errorf("%q must not contain path separators", id)
	}
	return nil
}
