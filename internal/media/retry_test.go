package media

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestUploadBackOffSchedule(t *testing.T) {
	b := newUploadBackOff(2*time.Second, 8*time.Second)
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("step %d: got %v, want %v", i, got, w)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &UploadError{Status: http.StatusServiceUnavailable}, true},
		{"client error", &UploadError{Status: http.StatusBadRequest}, false},
		{"network", &networkError{err: errors.New("connection reset")}, true},
		{"timeout", ErrUploadTimeout, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}
