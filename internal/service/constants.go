package service

import "time"

// Timeout constants for service operations
const (
	// DefaultManifestTimeout is the per-request timeout for manifest downloads
	DefaultManifestTimeout = 10 * time.Second
)
