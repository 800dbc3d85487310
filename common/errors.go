package common

import "github.com/pkg/errors"

// Error kinds surfaced by the pack builder. Call sites wrap these with context;
// test for them with errors.Is.
var (
	// ErrConfiguration reports a missing or invalid configuration field or an
	// unsupported mode. It aborts a pack before any of its output is written.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrImageDecode reports an unreadable source sheet.
	ErrImageDecode = errors.New("image decode failed")
	// ErrServiceUnavailable reports a missing or unreachable segmentation backend.
	ErrServiceUnavailable = errors.New("segmentation service unavailable")
)
