// Package onnx - Salient-object segmentation on ONNX Runtime.
//
// Segmenter runs a u2net-family model and implements background.Service, so
// the external cutout and external mask strategies can run without any
// network service.
package onnx

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/emotes/background"
	"github.com/nvr-ai/emotes/common"
)

// Segmenter owns one inference session with preallocated tensors. Calls are
// serialized: the bound tensors are shared between runs.
type Segmenter struct {
	mu      sync.Mutex
	size    int
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

var _ background.Service = (*Segmenter)(nil)

// NewSegmenter loads the model and prepares the session.
//
// Order of operations:
//  1. Library and model path checks.
//  2. Environment setup, once per process.
//  3. Node name discovery unless overridden.
//  4. Tensor allocation for [1, 3, size, size] in and [1, 1, size, size] out.
//  5. Session creation.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *Segmenter: Ready for inference; release it with Close.
//   - error: Wrapping common.ErrServiceUnavailable when the runtime or model
//     cannot be loaded.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(common.ErrServiceUnavailable, "model %s: %v", cfg.ModelPath, err)
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inName, outName := cfg.InputName, cfg.OutputName
	if inName == "" || outName == "" {
		ins, outs, err := ort.GetInputOutputInfo(cfg.ModelPath)
		if err != nil {
			return nil, errors.Wrapf(common.ErrServiceUnavailable, "reading model io: %v", err)
		}
		if len(ins) == 0 || len(outs) == 0 {
			return nil, errors.Wrap(common.ErrServiceUnavailable, "model declares no inputs or outputs")
		}
		if inName == "" {
			inName = ins[0].Name
		}
		if outName == "" {
			outName = outs[0].Name
		}
	}

	size := int64(cfg.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, size, size))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "setting intra-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "setting graph optimization level")
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{inName},
		[]string{outName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(common.ErrServiceUnavailable, "creating session: %v", err)
	}

	return &Segmenter{
		size:    cfg.InputSize,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

var envMu sync.Mutex

// initEnvironment loads the shared library on first use.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		if _, err := os.Stat(libPath); err != nil {
			return errors.Wrapf(common.ErrServiceUnavailable, "onnxruntime library %s: %v", libPath, err)
		}
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrapf(common.ErrServiceUnavailable, "initializing onnxruntime: %v", err)
	}
	return nil
}

// Mask implements background.Service. Inference itself cannot be
// interrupted; the context is checked before the run starts.
func (s *Segmenter) Mask(ctx context.Context, tile *image.NRGBA) (*image.Gray, error) {
	data := Preprocess(tile, s.size)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, errors.Wrap(common.ErrServiceUnavailable, "segmenter closed")
	}

	copy(s.input.GetData(), data)
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "running segmentation")
	}

	return Postprocess(s.output.GetData(), s.size, tile.Bounds().Size()), nil
}

// Cutout implements background.Service.
func (s *Segmenter) Cutout(ctx context.Context, tile *image.NRGBA, matting background.Matting) (*image.NRGBA, error) {
	mask, err := s.Mask(ctx, tile)
	if err != nil {
		return nil, err
	}
	return background.MattedCutout(tile, mask, matting), nil
}

// Close releases the session and its tensors.
func (s *Segmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "destroying session")
		}
	}
	return nil
}
