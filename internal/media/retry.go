package media

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// newUploadBackOff returns a deterministic doubling schedule capped at max
func newUploadBackOff(initial, max time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         max,
	}
	b.Reset()
	return b
}

// networkError wraps transport failures, which are retried
type networkError struct {
	err error
}

func (e *networkError) Error() string { return "upload request failed: " + e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

// isRetryable classifies an attempt error
func isRetryable(err error) bool {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Retryable()
	}
	var netErr *networkError
	return errors.As(err, &netErr)
}
