package onnx

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/common"
)

// Config for the segmentation session.
type Config struct {
	// ModelPath is the u2net-family ONNX model file.
	ModelPath string `json:"modelPath" yaml:"modelPath"`
	// LibraryPath is the onnxruntime shared library. Empty selects
	// GetSharedLibPath.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// InputSize is the square side the model was trained on.
	InputSize int `json:"inputSize" yaml:"inputSize"`
	// Threads caps intra-op parallelism. Zero lets the runtime decide.
	Threads int `json:"threads" yaml:"threads"`
	// InputName and OutputName override the node names read from the model.
	InputName  string `json:"inputName" yaml:"inputName"`
	OutputName string `json:"outputName" yaml:"outputName"`
}

// DefaultConfig returns the settings for the stock u2net models.
func DefaultConfig() Config {
	return Config{
		LibraryPath: GetSharedLibPath(),
		InputSize:   320,
	}
}

// Validate checks the fields that do not need the filesystem.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.Wrap(common.ErrServiceUnavailable, "no segmentation model configured")
	}
	if c.InputSize <= 0 {
		return errors.Wrapf(common.ErrConfiguration, "model input size %d must be positive", c.InputSize)
	}
	if c.Threads < 0 {
		return errors.Wrapf(common.ErrConfiguration, "thread count %d must not be negative", c.Threads)
	}
	return nil
}

// GetSharedLibPath returns the path to the shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library, empty when the platform has no default.
func GetSharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
	return ""
}
