package media

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned before any request when the cloud name
	// or upload preset is missing.
	ErrNotConfigured = errors.New("media CDN is not configured")

	// ErrUploadTimeout is returned when a single attempt exceeds its deadline
	ErrUploadTimeout = errors.New("upload timed out")
)

// UploadError is a non-2xx response from the CDN
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upload failed with status %d", e.Status)
}

// Retryable reports whether the failure is a server-side error
func (e *UploadError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

