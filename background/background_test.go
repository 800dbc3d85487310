package background

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/emotes/common"
	"github.com/nvr-ai/emotes/matte"
)

// fakeService returns a centered opaque square as mask, failing the first
// failures calls.
type fakeService struct {
	calls    atomic.Int32
	failures int32
	err      error
	delay    time.Duration
}

func (f *fakeService) fail(ctx context.Context) error {
	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if n <= f.failures {
		return f.err
	}
	return nil
}

func (f *fakeService) Mask(ctx context.Context, tile *image.NRGBA) (*image.Gray, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	b := tile.Bounds()
	m := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Dy() / 4; y < 3*b.Dy()/4; y++ {
		for x := b.Dx() / 4; x < 3*b.Dx()/4; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m, nil
}

func (f *fakeService) Cutout(ctx context.Context, tile *image.NRGBA, matting Matting) (*image.NRGBA, error) {
	mask, err := f.Mask(ctx, tile)
	if err != nil {
		return nil, err
	}
	return MattedCutout(tile, mask, matting), nil
}

func sheet(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{30, 160, 90, 255})
		}
	}
	return img
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":                EdgeFlood,
		"edge":            EdgeFlood,
		"Edge-Flood":      EdgeFlood,
		"rembg":           Cutout,
		"external-cutout": Cutout,
		"rembg_mask":      MaskComposite,
		"external-mask":   MaskComposite,
		"none":            None,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("magic")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestNewRequiresServiceForExternalModes(t *testing.T) {
	for _, mode := range []Mode{Cutout, MaskComposite} {
		_, err := New(mode, Options{})
		assert.True(t, errors.Is(err, common.ErrServiceUnavailable), mode)
	}

	r, err := New(None, Options{})
	require.NoError(t, err)
	assert.Equal(t, None, r.Mode())
}

func TestNewValidatesMatteParams(t *testing.T) {
	p := matte.DefaultParams()
	p.Threshold = 300
	_, err := New(EdgeFlood, Options{Matte: p})
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestEdgeFloodDoesNotMutateInput(t *testing.T) {
	tile := sheet(8, 8)
	r, err := New(EdgeFlood, Options{Matte: matte.DefaultParams()})
	require.NoError(t, err)

	out, rep, err := r.Remove(context.Background(), tile)
	require.NoError(t, err)
	assert.Equal(t, 48, rep.Background)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), tile.NRGBAAt(0, 0).A)
}

func TestMaskCompositeAppliesMask(t *testing.T) {
	tile := sheet(8, 8)
	r, err := New(MaskComposite, Options{Service: &fakeService{}})
	require.NoError(t, err)

	out, _, err := r.Remove(context.Background(), tile)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0}, out.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{30, 160, 90, 255}, out.NRGBAAt(4, 4))
}

func TestMaskCompositeErodes(t *testing.T) {
	tile := sheet(16, 16)
	r, err := New(MaskComposite, Options{Service: &fakeService{}, Erode: 2})
	require.NoError(t, err)

	out, _, err := r.Remove(context.Background(), tile)
	require.NoError(t, err)
	// Even size 2 becomes 3: the 8x8 square loses one pixel on every side.
	assert.Equal(t, uint8(0), out.NRGBAAt(4, 4).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(5, 5).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(10, 10).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(11, 11).A)
}

func TestCutoutUsesService(t *testing.T) {
	tile := sheet(8, 8)
	r, err := New(Cutout, Options{Service: &fakeService{}, Matting: Matting{}})
	require.NoError(t, err)

	out, _, err := r.Remove(context.Background(), tile)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 7).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(3, 3).A)
}

func TestCutoutSurfacesServiceErrors(t *testing.T) {
	boom := errors.New("boom")
	r, err := New(Cutout, Options{Service: &fakeService{failures: 1, err: boom}})
	require.NoError(t, err)

	_, _, err = r.Remove(context.Background(), sheet(4, 4))
	assert.True(t, errors.Is(err, boom))
}

func TestWithRetryRecovers(t *testing.T) {
	svc := &fakeService{failures: 2, err: errors.New("flaky")}
	wrapped := WithRetry(svc, RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, nil)

	mask, err := wrapped.Mask(context.Background(), sheet(4, 4))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), mask.Bounds())
	assert.Equal(t, int32(3), svc.calls.Load())
}

func TestWithRetryGivesUp(t *testing.T) {
	flaky := errors.New("flaky")
	svc := &fakeService{failures: 10, err: flaky}
	wrapped := WithRetry(svc, RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, nil)

	_, err := wrapped.Cutout(context.Background(), sheet(4, 4), Matting{})
	assert.True(t, errors.Is(err, flaky))
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestWithRetryDoesNotRetryUnavailable(t *testing.T) {
	svc := &fakeService{failures: 10, err: errors.Wrap(common.ErrServiceUnavailable, "no model")}
	wrapped := WithRetry(svc, RetryPolicy{Attempts: 5}, nil)

	_, err := wrapped.Mask(context.Background(), sheet(4, 4))
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestWithRetryAppliesTimeout(t *testing.T) {
	svc := &fakeService{delay: time.Second}
	wrapped := WithRetry(svc, RetryPolicy{Attempts: 2, Timeout: 5 * time.Millisecond}, nil)

	start := time.Now()
	_, err := wrapped.Mask(context.Background(), sheet(4, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	svc := &fakeService{failures: 10, err: errors.New("flaky")}
	wrapped := WithRetry(svc, RetryPolicy{Attempts: 5, Backoff: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := wrapped.Mask(ctx, sheet(4, 4))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), svc.calls.Load())
}
