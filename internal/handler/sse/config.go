package sse

import "time"

// Config tunes the project and task snapshot streams
type Config struct {
	// KeepAliveInterval spaces the comment pings written between snapshots.
	// A failed ping ends the stream.
	KeepAliveInterval time.Duration
	// RetryInterval is written once as the retry field when a stream opens
	RetryInterval time.Duration
}

// DefaultConfig pings every 10s and asks clients to reconnect after 3s
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		RetryInterval:     3 * time.Second,
	}
}
