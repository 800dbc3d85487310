package onnx

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/emotes/common"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, errors.Is(cfg.Validate(), common.ErrServiceUnavailable))

	cfg.ModelPath = "u2net.onnx"
	assert.NoError(t, cfg.Validate())

	cfg.InputSize = 0
	assert.True(t, errors.Is(cfg.Validate(), common.ErrConfiguration))

	cfg.InputSize = 320
	cfg.Threads = -1
	assert.True(t, errors.Is(cfg.Validate(), common.ErrConfiguration))
}

func TestNewSegmenterMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")

	_, err := NewSegmenter(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
}

func TestPreprocessNormalizesChannels(t *testing.T) {
	tile := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(tile.Pix); i += 4 {
		copy(tile.Pix[i:], []uint8{255, 0, 51, 0}) // alpha is ignored
	}

	data := Preprocess(tile, 4)
	require.Len(t, data, 3*16)

	for i := 0; i < 16; i++ {
		assert.InDelta(t, (1-0.485)/0.229, data[i], 1e-4)
		assert.InDelta(t, (0-0.456)/0.224, data[16+i], 1e-4)
		assert.InDelta(t, (0.2-0.406)/0.225, data[32+i], 1e-4)
	}
}

func TestPreprocessHandlesBlackTile(t *testing.T) {
	tile := image.NewNRGBA(image.Rect(2, 2, 6, 6))
	data := Preprocess(tile, 2)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, -0.485/0.229, data[i], 1e-4)
	}
}

func TestPostprocessMinMax(t *testing.T) {
	pred := []float32{-1, 0, 1, 3}
	mask := Postprocess(pred, 2, image.Pt(2, 2))
	assert.Equal(t, []uint8{0, 63, 127, 255}, mask.Pix)
}

func TestPostprocessConstantPrediction(t *testing.T) {
	mask := Postprocess([]float32{0.5, 0.5, 0.5, 0.5}, 2, image.Pt(2, 2))
	assert.Equal(t, []uint8{0, 0, 0, 0}, mask.Pix)
}

func TestPostprocessScalesToTile(t *testing.T) {
	pred := make([]float32, 16)
	for i := range pred {
		pred[i] = 1
	}
	pred[0] = 0

	mask := Postprocess(pred, 4, image.Pt(10, 6))
	require.Equal(t, image.Rect(0, 0, 10, 6), mask.Bounds())
	assert.Equal(t, color.Gray{Y: 255}, mask.GrayAt(9, 5))
	assert.Less(t, mask.GrayAt(0, 0).Y, uint8(128))
}
