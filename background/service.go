package background

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/common"
)

// Service is an external salient-object segmentation backend.
// Implementations must be safe for concurrent use.
type Service interface {
	// Mask returns a soft alpha mask for tile, sized like tile.
	Mask(ctx context.Context, tile *image.NRGBA) (*image.Gray, error)
	// Cutout returns tile with its background removed, sized like tile.
	Cutout(ctx context.Context, tile *image.NRGBA, matting Matting) (*image.NRGBA, error)
}

// RetryPolicy bounds calls to a Service.
type RetryPolicy struct {
	// Timeout caps a single attempt. Zero means no per-attempt deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// Attempts is the total number of tries, at least 1.
	Attempts int `json:"attempts" yaml:"attempts"`
	// Backoff is multiplied by the attempt number to get the wait before the
	// next try.
	Backoff time.Duration `json:"backoff" yaml:"backoff"`
}

// DefaultRetryPolicy is used by the CLI when no flags override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:  30 * time.Second,
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

// retrying wraps a Service with per-attempt deadlines and linear backoff.
type retrying struct {
	svc    Service
	policy RetryPolicy
	logger *slog.Logger
}

// WithRetry wraps svc so every call is retried according to policy.
// Errors wrapping common.ErrServiceUnavailable are returned immediately: a
// missing backend does not come back by waiting. Cancellation of the caller's
// context stops the loop.
//
// Arguments:
//   - svc: The service to wrap.
//   - policy: Timeout and retry bounds.
//   - logger: Receives a warning per failed attempt; nil discards them.
//
// Returns:
//   - A Service with the same semantics as svc.
func WithRetry(svc Service, policy RetryPolicy, logger *slog.Logger) Service {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &retrying{svc: svc, policy: policy, logger: logger}
}

// Mask implements Service.
func (r *retrying) Mask(ctx context.Context, tile *image.NRGBA) (*image.Gray, error) {
	return retry(ctx, r, "mask", func(ctx context.Context) (*image.Gray, error) {
		return r.svc.Mask(ctx, tile)
	})
}

// Cutout implements Service.
func (r *retrying) Cutout(ctx context.Context, tile *image.NRGBA, matting Matting) (*image.NRGBA, error) {
	return retry(ctx, r, "cutout", func(ctx context.Context) (*image.NRGBA, error) {
		return r.svc.Cutout(ctx, tile, matting)
	})
}

func retry[T any](ctx context.Context, r *retrying, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	var err error

	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		var out T
		out, err = callOnce(ctx, r.policy.Timeout, call)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, common.ErrServiceUnavailable) || ctx.Err() != nil {
			return zero, err
		}

		r.logger.Warn("segmentation call failed",
			"op", op,
			"attempt", attempt,
			"attempts", r.policy.Attempts,
			"error", err,
		)
		if attempt == r.policy.Attempts {
			break
		}

		wait := r.policy.Backoff * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return zero, errors.Wrapf(ctx.Err(), "%s retry aborted", op)
		case <-time.After(wait):
		}
	}

	return zero, errors.Wrapf(err, "%s failed after %d attempts", op, r.policy.Attempts)
}

// callOnce runs one call under the per-attempt timeout.
func callOnce[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(ctx)
}
