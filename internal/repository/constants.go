package repository

import "time"

const (
	// RemoteRetryCount is how often transient clone/fetch/ls-remote failures
	// are retried before the repository is marked unavailable.
	RemoteRetryCount = uint64(2)
	// RemoteRetryDelay is the initial delay for exponential backoff.
	RemoteRetryDelay = 500 * time.Millisecond
)
