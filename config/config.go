// Package config - Emote pack configuration: types, defaults, validation and
// loading from a directory of JSON or YAML files.
package config

import (
	"path/filepath"

	"github.com/nvr-ai/emotes/background"
	"github.com/nvr-ai/emotes/matte"
	"github.com/nvr-ai/emotes/resample"
)

// Default locations, relative to the working directory.
var (
	DefaultConfigDir    = filepath.Join("server", "storage", "emotes", "packs")
	DefaultManifestPath = filepath.Join("server", "storage", "emotes", "manifest.json")
	DefaultOutputRoot   = filepath.Join("server", "storage", "emotes")
)

// Grid is the layout of the sprite sheet.
type Grid struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

// Item is one emote cut from the sheet.
type Item struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
	// Index is the 1-based cell number in row-major order. Zero means the
	// item's own 1-based position in the pack.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`
}

// Pack is one pack configuration file.
type Pack struct {
	ID          string `json:"id"           yaml:"id"`
	Name        string `json:"name"         yaml:"name"`
	SourceImage string `json:"source_image" yaml:"source_image"`
	Grid        Grid   `json:"grid"         yaml:"grid"`
	OutputDir   string `json:"output_dir"   yaml:"output_dir"`
	IconID      string `json:"icon_id"      yaml:"icon_id"`
	Items       []Item `json:"items"        yaml:"items"`

	// Size is the side of the square output PNGs.
	Size           int    `json:"size"            yaml:"size"`
	ResampleFilter string `json:"resample_filter" yaml:"resample_filter"`
	BackgroundMode string `json:"background_mode" yaml:"background_mode"`

	// Edge flood fill.
	BackgroundThreshold int     `json:"background_threshold" yaml:"background_threshold"`
	EdgeFeather         int     `json:"edge_feather"         yaml:"edge_feather"`
	DecontamThreshold   float64 `json:"decontam_threshold"   yaml:"decontam_threshold"`
	MinAlpha            float64 `json:"min_alpha"            yaml:"min_alpha"`

	// Cleanup filters.
	DematteBlack               bool    `json:"dematte_black"                 yaml:"dematte_black"`
	DematteMinAlpha            float64 `json:"dematte_min_alpha"             yaml:"dematte_min_alpha"`
	CleanupDarkFringe          bool    `json:"cleanup_dark_fringe"           yaml:"cleanup_dark_fringe"`
	FringeColorThreshold       int     `json:"fringe_color_threshold"        yaml:"fringe_color_threshold"`
	FringeAlphaThreshold       int     `json:"fringe_alpha_threshold"        yaml:"fringe_alpha_threshold"`
	CleanupEdgeBlack           bool    `json:"cleanup_edge_black"            yaml:"cleanup_edge_black"`
	EdgeBlackThreshold         int     `json:"edge_black_threshold"          yaml:"edge_black_threshold"`
	EdgeAlphaNeighborThreshold int     `json:"edge_alpha_neighbor_threshold" yaml:"edge_alpha_neighbor_threshold"`

	// External segmentation.
	RembgAlphaMatting        bool `json:"rembg_alpha_matting"         yaml:"rembg_alpha_matting"`
	RembgForegroundThreshold int  `json:"rembg_foreground_threshold"  yaml:"rembg_foreground_threshold"`
	RembgBackgroundThreshold int  `json:"rembg_background_threshold"  yaml:"rembg_background_threshold"`
	RembgErodeSize           int  `json:"rembg_erode_size"            yaml:"rembg_erode_size"`
	RembgPostProcessMask     bool `json:"rembg_post_process_mask"     yaml:"rembg_post_process_mask"`
	RembgMaskErode           int  `json:"rembg_mask_erode"            yaml:"rembg_mask_erode"`

	// Source is the file the pack was loaded from. Not serialized.
	Source string `json:"-" yaml:"-"`
}

// DefaultPack returns a pack with every optional field at its default.
func DefaultPack() Pack {
	mp := matte.DefaultParams()
	mt := background.DefaultMatting()
	return Pack{
		Size:           128,
		ResampleFilter: string(resample.DefaultFilter),
		BackgroundMode: string(background.EdgeFlood),

		BackgroundThreshold: mp.Threshold,
		EdgeFeather:         mp.FeatherRadius,
		DecontamThreshold:   mp.DecontamFloor,
		MinAlpha:            mp.MinAlpha,

		DematteMinAlpha:            0.05,
		FringeColorThreshold:       16,
		FringeAlphaThreshold:       200,
		EdgeBlackThreshold:         30,
		EdgeAlphaNeighborThreshold: 10,

		RembgAlphaMatting:        mt.Enabled,
		RembgForegroundThreshold: mt.ForegroundThreshold,
		RembgBackgroundThreshold: mt.BackgroundThreshold,
		RembgErodeSize:           mt.ErodeSize,
		RembgPostProcessMask:     true,
	}
}

// ItemIndex returns the 1-based cell index of the item at position pos.
func (p Pack) ItemIndex(pos int) int {
	if idx := p.Items[pos].Index; idx != 0 {
		return idx
	}
	return pos + 1
}

// Icon returns the id of the pack icon: IconID, else the first item, else "".
func (p Pack) Icon() string {
	if p.IconID != "" {
		return p.IconID
	}
	if len(p.Items) > 0 {
		return p.Items[0].ID
	}
	return ""
}

// OutputPath returns the directory the pack's PNGs are written to.
func (p Pack) OutputPath() string {
	if p.OutputDir != "" {
		return p.OutputDir
	}
	return filepath.Join(DefaultOutputRoot, p.ID)
}

// MatteParams returns the edge flood fill parameters.
func (p Pack) MatteParams() matte.Params {
	return matte.Params{
		Threshold:     p.BackgroundThreshold,
		FeatherRadius: p.EdgeFeather,
		DecontamFloor: p.DecontamThreshold,
		MinAlpha:      p.MinAlpha,
	}
}

// Matting returns the trimap settings of the external cutout mode.
func (p Pack) Matting() background.Matting {
	return background.Matting{
		Enabled:             p.RembgAlphaMatting,
		ForegroundThreshold: p.RembgForegroundThreshold,
		BackgroundThreshold: p.RembgBackgroundThreshold,
		ErodeSize:           p.RembgErodeSize,
	}
}

// Mode parses BackgroundMode.
func (p Pack) Mode() (background.Mode, error) {
	return background.ParseMode(p.BackgroundMode)
}

// Filter parses ResampleFilter.
func (p Pack) Filter() (resample.Filter, error) {
	return resample.ParseFilter(p.ResampleFilter)
}
