package filters

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(px ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(px), 1))
	for x, c := range px {
		img.SetNRGBA(x, 0, c)
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDematte(t *testing.T) {
	src := row(
		color.NRGBA{100, 50, 10, 128},
		color.NRGBA{10, 10, 10, 255},
		color.NRGBA{9, 9, 9, 0},
		color.NRGBA{200, 3, 0, 2},
	)

	out := Dematte(src, 0.25)

	// 100 / (128/255) = 199.2
	assert.Equal(t, color.NRGBA{199, 99, 19, 128}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{10, 10, 10, 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{9, 9, 9, 0}, out.NRGBAAt(2, 0))
	// alpha 2/255 is floored at 0.25: 200/0.25 saturates, 3/0.25 = 12.
	assert.Equal(t, color.NRGBA{255, 12, 0, 2}, out.NRGBAAt(3, 0))

	assert.Equal(t, color.NRGBA{100, 50, 10, 128}, src.NRGBAAt(0, 0), "input mutated")
}

func TestDematteSinglePrecision(t *testing.T) {
	// 17/255 and 16/255 are inexact in float32; the quotients land just
	// below the integer and truncate down.
	src := row(
		color.NRGBA{1, 2, 3, 17},
		color.NRGBA{16, 0, 0, 16},
	)

	out := Dematte(src, 0.05)
	assert.Equal(t, color.NRGBA{14, 29, 44, 17}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{254, 0, 0, 16}, out.NRGBAAt(1, 0))
}

func TestDropDarkFringe(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		want uint8
	}{
		{"dark and faint", color.NRGBA{15, 15, 15, 199}, 0},
		{"dark but opaque enough", color.NRGBA{15, 15, 15, 200}, 200},
		{"one channel at threshold", color.NRGBA{16, 0, 0, 10}, 10},
		{"bright and faint", color.NRGBA{120, 80, 40, 50}, 50},
		{"opaque outline", color.NRGBA{0, 0, 0, 255}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DropDarkFringe(row(tt.in), DefaultFringeColorThreshold, DefaultFringeAlphaThreshold)
			assert.Equal(t, tt.want, out.NRGBAAt(0, 0).A)
		})
	}
}

func TestClearEdgeBlackRemovesPixelsNextToTransparency(t *testing.T) {
	img := solid(5, 5, color.NRGBA{200, 100, 50, 255})
	img.SetNRGBA(0, 2, color.NRGBA{}) // transparent hole on the left edge
	img.SetNRGBA(1, 2, color.NRGBA{20, 20, 20, 255})
	img.SetNRGBA(2, 2, color.NRGBA{20, 20, 20, 255})
	img.SetNRGBA(2, 1, color.NRGBA{31, 0, 0, 255})

	out := ClearEdgeBlack(img, DefaultEdgeBlackThreshold, DefaultNeighborAlphaThreshold)

	assert.Equal(t, uint8(0), out.NRGBAAt(1, 2).A, "touches the hole")
	assert.Equal(t, uint8(255), out.NRGBAAt(2, 2).A, "neighbor cleared in the same pass must not cascade")
	assert.Equal(t, uint8(255), out.NRGBAAt(2, 1).A, "above color threshold")
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 2).A, "input mutated")
}

func TestClearEdgeBlackTreatsOutsideAsTransparent(t *testing.T) {
	img := solid(3, 3, color.NRGBA{200, 200, 200, 255})
	img.SetNRGBA(0, 0, color.NRGBA{30, 30, 30, 255})
	img.SetNRGBA(1, 1, color.NRGBA{30, 30, 30, 255})

	out := ClearEdgeBlack(img, 30, 10)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(1, 1).A, "enclosed dark pixel stays")
}

func TestClearEdgeBlackNeighborAlphaThreshold(t *testing.T) {
	img := solid(3, 3, color.NRGBA{200, 200, 200, 255})
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(2, 2, color.NRGBA{200, 200, 200, 10})

	out := ClearEdgeBlack(img, 30, 10)
	assert.Equal(t, uint8(0), out.NRGBAAt(1, 1).A, "diagonal neighbor with alpha 10")

	out = ClearEdgeBlack(img, 30, 9)
	assert.Equal(t, uint8(255), out.NRGBAAt(1, 1).A)
}

func TestFiltersNormalizeBounds(t *testing.T) {
	img := solid(6, 6, color.NRGBA{5, 5, 5, 100})
	sub := img.SubImage(image.Rect(2, 2, 5, 4)).(*image.NRGBA)

	for name, out := range map[string]*image.NRGBA{
		"dematte":    Dematte(sub, 0.05),
		"fringe":     DropDarkFringe(sub, 16, 200),
		"edge-black": ClearEdgeBlack(sub, 30, 10),
	} {
		require.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds(), name)
	}
}
