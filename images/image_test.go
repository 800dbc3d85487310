package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestSheet builds a 4x2 sheet of 2x2 tiles, each tile filled with a
// distinct gray level so crops can be told apart.
func getTestSheet() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			tile := (y/2)*4 + x/2
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(tile * 10), G: 1, B: 2, A: 255})
		}
	}
	return img
}

func TestToNRGBAKeepsLowAlphaColor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(3, 4, 5, 5))
	src.SetNRGBA(3, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 1})

	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 1}, out.NRGBAAt(0, 0))

	out.SetNRGBA(0, 0, color.NRGBA{})
	assert.Equal(t, uint8(200), src.NRGBAAt(3, 4).R, "copy must not alias the source")
}

func TestToNRGBAConvertsOpaqueRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	assert.Equal(t, color.NRGBA{R: 9, G: 8, B: 7, A: 255}, ToNRGBA(src).NRGBAAt(0, 0))
}

func TestCrop(t *testing.T) {
	sheet := getTestSheet()

	tile := Crop(sheet, image.Rect(6, 2, 8, 4))
	require.Equal(t, image.Rect(0, 0, 2, 2), tile.Bounds())
	assert.Equal(t, uint8(70), tile.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(70), tile.NRGBAAt(1, 1).R)

	// Partially outside: the missing area stays transparent.
	edge := Crop(sheet, image.Rect(7, 3, 9, 5))
	assert.Equal(t, uint8(255), edge.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), edge.NRGBAAt(1, 1).A)
}

func TestApplyAlphaMask(t *testing.T) {
	buf := getTestSheet()
	mask := image.NewGray(image.Rect(0, 0, 8, 4))
	mask.SetGray(1, 1, color.Gray{Y: 77})

	out := ApplyAlphaMask(buf, mask)
	assert.Equal(t, uint8(77), out.NRGBAAt(1, 1).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, buf.NRGBAAt(1, 1).R, out.NRGBAAt(1, 1).R)
	assert.Equal(t, uint8(255), buf.NRGBAAt(0, 0).A, "input must be left untouched")
}

func TestApplyAlphaMaskScalesMask(t *testing.T) {
	buf := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	out := ApplyAlphaMask(buf, mask)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.GreaterOrEqual(t, out.NRGBAAt(x, y).A, uint8(254))
		}
	}
}

func TestCoverage(t *testing.T) {
	buf := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Zero(t, Coverage(buf))
	buf.SetNRGBA(0, 0, color.NRGBA{A: 1})
	assert.InDelta(t, 0.25, Coverage(buf), 1e-9)
}

func TestDecodePNG(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, getTestSheet()))

	img, format, err := Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)
	assert.Equal(t, getTestSheet().Pix, img.Pix)
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestPNGBytesRoundTrip(t *testing.T) {
	data, err := PNGBytes(getTestSheet())
	require.NoError(t, err)
	img, _, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, getTestSheet().Pix, img.Pix)
}

func TestClampUint8(t *testing.T) {
	assert.Equal(t, uint8(0), ClampUint8(-4))
	assert.Equal(t, uint8(128), ClampUint8(127.5))
	assert.Equal(t, uint8(255), ClampUint8(1e9))
}

func TestParallelCoversEveryItemOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int32, 37)
		Parallel(len(seen), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "item %d with %d workers", i, workers)
		}
	}
}

func TestChecksum(t *testing.T) {
	sheet := getTestSheet()

	a := Checksum(Crop(sheet, image.Rect(2, 0, 4, 2)))
	b := Checksum(sheet.SubImage(image.Rect(2, 0, 4, 2)))
	assert.Equal(t, a, b, "origin must not matter")
	assert.NotEqual(t, a, Checksum(Crop(sheet, image.Rect(0, 0, 2, 2))))
	assert.Len(t, a, 32)

	// Same pixels, different shape.
	wide := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	tall := image.NewNRGBA(image.Rect(0, 0, 1, 4))
	assert.NotEqual(t, Checksum(wide), Checksum(tall))

	assert.Equal(t, "empty", Checksum(image.NewNRGBA(image.Rectangle{})))
}
