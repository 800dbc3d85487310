package background

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/common"
	"github.com/nvr-ai/emotes/images"
	"github.com/nvr-ai/emotes/matte"
)

// Remover strips the background of one tile. The returned buffer is always a
// new origin-zero image; the input is never modified.
type Remover interface {
	Remove(ctx context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error)
	Mode() Mode
}

// Options carries everything the strategies need. Only the fields of the
// selected mode are read.
type Options struct {
	// Matte configures EdgeFlood.
	Matte matte.Params
	// Matting configures the trimap clamp of Cutout.
	Matting Matting
	// PostProcess smooths the mask of MaskComposite.
	PostProcess bool
	// Erode shrinks the mask of MaskComposite with a min filter of this size.
	Erode int
	// Service backs Cutout and MaskComposite.
	Service Service
}

// New builds the Remover for mode.
//
// Arguments:
//   - mode: The strategy to build.
//   - opts: Strategy settings.
//
// Returns:
//   - The Remover.
//   - An error wrapping common.ErrServiceUnavailable when an external mode is
//     selected without a Service, or common.ErrConfiguration for an unknown mode.
func New(mode Mode, opts Options) (Remover, error) {
	if mode.External() && opts.Service == nil {
		return nil, errors.Wrapf(common.ErrServiceUnavailable, "background mode %q needs a segmentation service", mode)
	}

	switch mode {
	case EdgeFlood:
		if err := opts.Matte.Validate(); err != nil {
			return nil, errors.Wrap(common.ErrConfiguration, err.Error())
		}
		return &edgeFlood{params: opts.Matte}, nil
	case Cutout:
		return &cutout{svc: opts.Service, matting: opts.Matting}, nil
	case MaskComposite:
		return &maskComposite{svc: opts.Service, postProcess: opts.PostProcess, erode: opts.Erode}, nil
	case None:
		return passthrough{}, nil
	}
	return nil, errors.Wrapf(common.ErrConfiguration, "unsupported background mode %q", mode)
}

// edgeFlood runs the local near-black segmentation and decontamination.
type edgeFlood struct {
	params matte.Params
}

func (e *edgeFlood) Mode() Mode { return EdgeFlood }

func (e *edgeFlood) Remove(_ context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error) {
	out, rep := matte.SegmentAndClean(images.Clone(tile), e.params)
	return out, rep, nil
}

// cutout delegates the whole removal to the service.
type cutout struct {
	svc     Service
	matting Matting
}

func (c *cutout) Mode() Mode { return Cutout }

func (c *cutout) Remove(ctx context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error) {
	out, err := c.svc.Cutout(ctx, tile, c.matting)
	if err != nil {
		return nil, matte.Report{}, errors.Wrap(err, "cutout")
	}
	if err := sameSize(tile, out.Bounds()); err != nil {
		return nil, matte.Report{}, err
	}
	return images.Clone(out), matte.Report{}, nil
}

// maskComposite asks the service for a mask and applies it locally.
type maskComposite struct {
	svc         Service
	postProcess bool
	erode       int
}

func (m *maskComposite) Mode() Mode { return MaskComposite }

func (m *maskComposite) Remove(ctx context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error) {
	mask, err := m.svc.Mask(ctx, tile)
	if err != nil {
		return nil, matte.Report{}, errors.Wrap(err, "mask")
	}
	if err := sameSize(tile, mask.Bounds()); err != nil {
		return nil, matte.Report{}, err
	}

	if m.postProcess {
		mask = PostProcessMask(mask)
	}
	mask = ErodeMask(mask, m.erode)
	return NaiveCutout(tile, mask), matte.Report{}, nil
}

// passthrough keeps the tile as it is.
type passthrough struct{}

func (passthrough) Mode() Mode { return None }

func (passthrough) Remove(_ context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error) {
	return images.Clone(tile), matte.Report{}, nil
}

func sameSize(tile *image.NRGBA, got image.Rectangle) error {
	if got.Size() != tile.Bounds().Size() {
		return errors.Errorf("segmentation returned %v for a %v tile", got.Size(), tile.Bounds().Size())
	}
	return nil
}
