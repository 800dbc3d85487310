// Package pack - The emote pack builder: it cuts each configured sprite
// sheet into tiles, runs every tile through the matte removal pipeline,
// writes the PNGs and assembles the manifest.
package pack

import (
	"context"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/background"
	"github.com/nvr-ai/emotes/common"
	"github.com/nvr-ai/emotes/config"
	"github.com/nvr-ai/emotes/images"
	"github.com/nvr-ai/emotes/manifest"
	"github.com/nvr-ai/emotes/profiler"
)

// ServiceFactory creates the segmentation service on first use.
type ServiceFactory func() (background.Service, error)

// Options configures a Builder.
type Options struct {
	// Workers bounds the tiles processed concurrently. Zero or less uses the
	// number of CPUs.
	Workers int
	// URLPrefix is the public path prefix of the emote files.
	URLPrefix string
	// Service creates the segmentation backend. It is called at most once,
	// and only when a pack selects an external mode.
	Service ServiceFactory
	// Retry bounds every segmentation call.
	Retry background.RetryPolicy
	// KeepGoing skips failed packs instead of aborting the run. Skipped packs
	// are left out of the manifest and reported in the returned error.
	KeepGoing bool
	// Profiler receives stage timings. Nil disables timing.
	Profiler *profiler.Profiler
}

// Builder runs packs. It is safe to reuse across runs but not for
// concurrent runs.
type Builder struct {
	opts Options

	svcOnce sync.Once
	svc     background.Service
	closer  io.Closer
	svcErr  error
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	if opts.URLPrefix == "" {
		opts.URLPrefix = manifest.DefaultURLPrefix
	}
	if opts.Retry.Attempts < 1 {
		opts.Retry = background.DefaultRetryPolicy()
	}
	return &Builder{opts: opts}
}

// service returns the retrying segmentation service, creating it on the
// first call.
func (b *Builder) service() (background.Service, error) {
	b.svcOnce.Do(func() {
		if b.opts.Service == nil {
			b.svcErr = errors.Wrap(common.ErrServiceUnavailable, "no segmentation backend configured")
			return
		}
		svc, err := b.opts.Service()
		if err != nil {
			b.svcErr = err
			return
		}
		if c, ok := svc.(io.Closer); ok {
			b.closer = c
		}
		b.svc = background.WithRetry(svc, b.opts.Retry, Logger())
	})
	return b.svc, b.svcErr
}

// Close releases the segmentation service if one was created.
func (b *Builder) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// Run loads every pack in configDir, builds them in order and writes the
// manifest to manifestPath.
//
// Arguments:
//   - ctx: Cancels the run between tiles.
//   - configDir: Directory of pack files.
//   - manifestPath: Where the manifest is written.
//
// Returns:
//   - The manifest that was written.
//   - An error; unless KeepGoing is set, the manifest is not written when any
//     pack fails.
func (b *Builder) Run(ctx context.Context, configDir, manifestPath string) (manifest.Manifest, error) {
	packs, err := config.LoadDir(configDir)
	if err != nil {
		return manifest.Manifest{}, err
	}

	m, buildErr := b.Build(ctx, packs)
	if buildErr != nil && !b.opts.KeepGoing {
		return manifest.Manifest{}, buildErr
	}

	if err := manifest.Write(manifestPath, m); err != nil {
		return manifest.Manifest{}, err
	}
	Logger().Info("manifest written", "path", manifestPath, "packs", len(m.Packs))
	return m, buildErr
}

// Build builds packs in order and returns their manifest. With KeepGoing the
// manifest holds the packs that succeeded and the error reports the rest.
func (b *Builder) Build(ctx context.Context, packs []config.Pack) (manifest.Manifest, error) {
	m := manifest.Manifest{Packs: make([]manifest.Pack, 0, len(packs))}

	var firstErr error
	failed := 0
	for _, p := range packs {
		entry, err := b.BuildPack(ctx, p)
		if err != nil {
			if !b.opts.KeepGoing || ctx.Err() != nil {
				Logger().Error("pack failed", "pack", p.ID, "error", err)
				return m, err
			}
			Logger().Warn("pack skipped", "pack", p.ID, "error", err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.Packs = append(m.Packs, entry)
	}

	if firstErr != nil {
		return m, errors.Wrapf(firstErr, "%d of %d packs failed", failed, len(packs))
	}
	return m, nil
}

// tileResult is the outcome of one item.
type tileResult struct {
	item manifest.Item
	err  error
}

// BuildPack validates p, decodes its sheet and writes one PNG per item.
// Items are processed concurrently; the manifest entry lists them in
// configuration order. Files written before a failure are kept.
func (b *Builder) BuildPack(ctx context.Context, p config.Pack) (manifest.Pack, error) {
	if err := p.Validate(); err != nil {
		return manifest.Pack{}, err
	}

	var svc background.Service
	if mode, _ := p.Mode(); mode.External() {
		s, err := b.service()
		if err != nil {
			return manifest.Pack{}, errors.Wrapf(err, "pack %q", p.ID)
		}
		svc = s
	}

	pl, err := NewPipeline(p, svc, b.opts.Profiler)
	if err != nil {
		return manifest.Pack{}, err
	}

	done := b.opts.Profiler.StartOperation("decode")
	sheet, err := loadSheet(p.SourceImage)
	done()
	if err != nil {
		return manifest.Pack{}, errors.Wrapf(err, "pack %q", p.ID)
	}

	tile := common.TileSize(sheet.Bounds(), p.Grid.Rows, p.Grid.Cols)
	if tile.X == 0 || tile.Y == 0 {
		return manifest.Pack{}, errors.Wrapf(common.ErrConfiguration,
			"pack %q: sheet %v is smaller than its %dx%d grid", p.ID, sheet.Bounds().Size(), p.Grid.Rows, p.Grid.Cols)
	}

	outDir := p.OutputPath()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return manifest.Pack{}, errors.Wrapf(err, "creating %s", outDir)
	}

	Logger().Info("building pack",
		"pack", p.ID,
		"items", len(p.Items),
		"mode", pl.Mode(),
		"tile", tile,
		"size", p.Size,
		"output", outDir,
	)

	results := make([]tileResult, len(p.Items))
	images.Parallel(len(p.Items), b.opts.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = b.buildItem(ctx, p, pl, sheet, tile, i)
		}
	})

	entry := manifest.Pack{
		ID:    p.ID,
		Name:  p.Name,
		Items: make([]manifest.Item, 0, len(p.Items)),
	}
	for _, r := range results {
		if r.err != nil {
			return manifest.Pack{}, r.err
		}
		entry.Items = append(entry.Items, r.item)
	}
	if icon := p.Icon(); icon != "" {
		entry.Icon = manifest.FileURL(b.opts.URLPrefix, p.ID, icon)
	}

	Logger().Info("pack built", "pack", p.ID, "items", len(entry.Items))
	return entry, nil
}

// buildItem crops, processes and writes the item at position pos.
func (b *Builder) buildItem(
	ctx context.Context,
	p config.Pack,
	pl *Pipeline,
	sheet image.Image,
	tile image.Point,
	pos int,
) tileResult {
	item := p.Items[pos]
	if err := ctx.Err(); err != nil {
		return tileResult{err: err}
	}

	defer b.opts.Profiler.StartOperation("tile")()

	cell := common.CellAt(p.ItemIndex(pos), p.Grid.Cols)
	crop := images.Crop(sheet, cell.Rect(sheet.Bounds().Min, tile))

	out, rep, err := pl.Process(ctx, crop)
	if err != nil {
		return tileResult{err: errors.Wrapf(err, "pack %q item %q (%s)", p.ID, item.ID, cell)}
	}

	if log := Logger(); log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("tile processed",
			"pack", p.ID,
			"item", item.ID,
			"cell", cell.Index,
			"background", rep.Background,
			"feathered", rep.Feathered,
			"decontaminated", rep.Decontaminated,
			"skipped", rep.Skipped,
			"unsegmented", rep.Unsegmented,
			"coverage", images.Coverage(out),
			"checksum", images.Checksum(out),
		)
	}
	b.opts.Profiler.RecordMetric("background_pixels", float64(rep.Background))
	b.opts.Profiler.RecordMetric("decontaminated_pixels", float64(rep.Decontaminated))
	b.opts.Profiler.RecordMetric("skipped_pixels", float64(rep.Skipped))

	file := filepath.Join(p.OutputPath(), item.ID+".png")
	done := b.opts.Profiler.StartOperation("encode")
	err = manifest.WritePNG(file, out)
	done()
	if err != nil {
		return tileResult{err: errors.Wrapf(err, "pack %q item %q", p.ID, item.ID)}
	}

	return tileResult{item: manifest.Item{
		ID:   item.ID,
		Name: item.Name,
		Text: item.Text,
		File: manifest.FileURL(b.opts.URLPrefix, p.ID, item.ID),
	}}
}

// loadSheet decodes the sprite sheet at path.
func loadSheet(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(common.ErrImageDecode, "opening %s: %v", path, err)
	}
	defer f.Close()

	sheet, _, err := images.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(common.ErrImageDecode, "%s: %v", path, err)
	}
	return sheet, nil
}
