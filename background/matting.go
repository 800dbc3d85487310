package background

import (
	"image"

	"github.com/nvr-ai/emotes/images"
	"github.com/nvr-ai/emotes/images/kernels"
)

// Matting configures how a soft segmentation mask is hardened before it
// becomes the alpha of a cutout.
type Matting struct {
	// Enabled turns on the trimap clamp. When off, the soft mask is used as is.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// ForegroundThreshold: mask values above it are candidate foreground.
	ForegroundThreshold int `json:"foregroundThreshold" yaml:"foregroundThreshold"`
	// BackgroundThreshold: mask values below it are candidate background.
	BackgroundThreshold int `json:"backgroundThreshold" yaml:"backgroundThreshold"`
	// ErodeSize is the side of the square used to shrink both candidate
	// regions before they are trusted. Zero disables the erosion.
	ErodeSize int `json:"erodeSize" yaml:"erodeSize"`
}

// DefaultMatting returns the matting settings used when a pack does not
// override them.
func DefaultMatting() Matting {
	return Matting{
		Enabled:             true,
		ForegroundThreshold: 240,
		BackgroundThreshold: 10,
		ErodeSize:           10,
	}
}

// Trimap clamps a soft mask to a three-level confidence map: pixels deep
// inside the foreground become 255, pixels deep inside the background become
// 0, and the band in between keeps the soft value from the model.
//
// Foreground erosion treats the outside of the mask as background, so a
// subject touching the tile edge never gets a forced-opaque rim. Background
// erosion replicates the edge pixels instead.
func Trimap(mask *image.Gray, m Matting) *image.Gray {
	b := mask.Bounds()
	fg := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	bg := image.NewGray(fg.Rect)
	soft := image.NewGray(fg.Rect)

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			i := y*soft.Stride + x
			soft.Pix[i] = v
			if int(v) > m.ForegroundThreshold {
				fg.Pix[i] = 255
			}
			if int(v) < m.BackgroundThreshold {
				bg.Pix[i] = 255
			}
		}
	}

	if m.ErodeSize > 1 {
		fg = kernels.MinFilter(fg, m.ErodeSize, kernels.EdgeClamp)
		clearBorder(fg, m.ErodeSize/2)
		bg = kernels.MinFilter(bg, m.ErodeSize, kernels.EdgeClamp)
	}

	for i := range soft.Pix {
		switch {
		case fg.Pix[i] == 255:
			soft.Pix[i] = 255
		case bg.Pix[i] == 255:
			soft.Pix[i] = 0
		}
	}
	return soft
}

// clearBorder zeroes a frame of width r around the mask, the result of an
// erosion whose window is padded with zeros.
func clearBorder(m *image.Gray, r int) {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < r || y < r || x >= w-r || y >= h-r {
				m.Pix[y*m.Stride+x] = 0
			}
		}
	}
}

// PostProcessMask smooths a soft mask into a clean binary one: a 3x3 opening
// drops isolated specks, a Gaussian blur (sigma 2) rounds jagged contours and
// a threshold at 127 turns the result back into 0 or 255.
func PostProcessMask(mask *image.Gray) *image.Gray {
	out := kernels.Open(mask, 3, kernels.EdgeClamp)
	out = kernels.GaussianApprox(out, 2, kernels.EdgeMirror)
	return kernels.Threshold(out, 127)
}

// ErodeMask shrinks the opaque part of a mask with a min filter. Even sizes
// are bumped to the next odd size; sizes below 1 return the mask unchanged.
func ErodeMask(mask *image.Gray, size int) *image.Gray {
	if size <= 0 {
		return mask
	}
	if size%2 == 0 {
		size++
	}
	return kernels.MinFilter(mask, size, kernels.EdgeClamp)
}

// NaiveCutout composites mask into a copy of tile's alpha channel.
func NaiveCutout(tile *image.NRGBA, mask *image.Gray) *image.NRGBA {
	return images.ApplyAlphaMask(tile, mask)
}

// MattedCutout composites the trimap of mask into a copy of tile when m is
// enabled, and falls back to NaiveCutout otherwise.
func MattedCutout(tile *image.NRGBA, mask *image.Gray, m Matting) *image.NRGBA {
	if !m.Enabled {
		return NaiveCutout(tile, mask)
	}
	return NaiveCutout(tile, Trimap(mask, m))
}
