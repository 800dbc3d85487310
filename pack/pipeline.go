package pack

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/background"
	"github.com/nvr-ai/emotes/config"
	"github.com/nvr-ai/emotes/filters"
	"github.com/nvr-ai/emotes/matte"
	"github.com/nvr-ai/emotes/profiler"
	"github.com/nvr-ai/emotes/resample"
)

// step is one optional cleanup filter.
type step struct {
	name string
	fn   func(*image.NRGBA) *image.NRGBA
}

// Pipeline turns one cropped tile into a finished emote: background removal,
// the enabled cleanup filters in a fixed order (dematte, dark fringe, edge
// black) and the alpha-correct resize. A Pipeline holds no per-tile state and
// can be shared by workers.
type Pipeline struct {
	remover background.Remover
	steps   []step
	size    int
	filter  resample.Filter
	prof    *profiler.Profiler
}

// NewPipeline builds the pipeline of a validated pack.
//
// Arguments:
//   - p: The pack.
//   - svc: The segmentation service, required by the external modes only.
//   - prof: Optional stage timer.
//
// Returns:
//   - The pipeline.
//   - An error wrapping common.ErrConfiguration or common.ErrServiceUnavailable.
func NewPipeline(p config.Pack, svc background.Service, prof *profiler.Profiler) (*Pipeline, error) {
	mode, err := p.Mode()
	if err != nil {
		return nil, err
	}
	filter, err := p.Filter()
	if err != nil {
		return nil, err
	}

	remover, err := background.New(mode, background.Options{
		Matte:       p.MatteParams(),
		Matting:     p.Matting(),
		PostProcess: p.RembgPostProcessMask,
		Erode:       p.RembgMaskErode,
		Service:     svc,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pack %q", p.ID)
	}

	pl := &Pipeline{remover: remover, size: p.Size, filter: filter, prof: prof}
	if p.DematteBlack {
		minAlpha := p.DematteMinAlpha
		pl.steps = append(pl.steps, step{"dematte", func(img *image.NRGBA) *image.NRGBA {
			return filters.Dematte(img, minAlpha)
		}})
	}
	if p.CleanupDarkFringe {
		c, a := p.FringeColorThreshold, p.FringeAlphaThreshold
		pl.steps = append(pl.steps, step{"dark_fringe", func(img *image.NRGBA) *image.NRGBA {
			return filters.DropDarkFringe(img, c, a)
		}})
	}
	if p.CleanupEdgeBlack {
		c, a := p.EdgeBlackThreshold, p.EdgeAlphaNeighborThreshold
		pl.steps = append(pl.steps, step{"edge_black", func(img *image.NRGBA) *image.NRGBA {
			return filters.ClearEdgeBlack(img, c, a)
		}})
	}
	return pl, nil
}

// Mode returns the background strategy in use.
func (pl *Pipeline) Mode() background.Mode {
	return pl.remover.Mode()
}

// Process runs every stage on tile. The input is not modified.
func (pl *Pipeline) Process(ctx context.Context, tile *image.NRGBA) (*image.NRGBA, matte.Report, error) {
	done := pl.prof.StartOperation("remove_background")
	out, rep, err := pl.remover.Remove(ctx, tile)
	done()
	if err != nil {
		return nil, rep, err
	}

	for _, s := range pl.steps {
		done := pl.prof.StartOperation(s.name)
		out = s.fn(out)
		done()
	}

	done = pl.prof.StartOperation("resample")
	out, err = resample.Resize(out, pl.size, pl.size, pl.filter)
	done()
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}
