package orchestrator

import (
	"os"
	"strings"
	"time"
)

// Timeout constants for external git operations
var (
	// GitOperationTimeout bounds every remote-facing git operation
	// (clone, fetch, ls-remote, pull).
	GitOperationTimeout = getTimeoutOrDefault("RELSYNC_GIT_TIMEOUT", 5*time.Minute, 5*time.Second)
	// MirrorLockTimeout is how long a run waits for the mirror-root lock
	// before concluding another instance is active.
	MirrorLockTimeout = getTimeoutOrDefault("RELSYNC_LOCK_TIMEOUT", 10*time.Second, 1*time.Second)
)

const (
	// LockRetryInterval is the interval between lock acquisition attempts.
	LockRetryInterval = 100 * time.Millisecond
	// ChangeLogLimit bounds the commit log shown per repository.
	ChangeLogLimit = 20
	// DefaultWorkerCount is the pool size when configuration does not set one;
	// never more workers than repositories run.
	DefaultWorkerCount = 4
	// LockFileName is the lock file kept at the mirror root.
	LockFileName = ".relsync.lock"
)

// isTestEnvironment detects if we're running under go test
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, ".test") {
			return true
		}
	}
	return os.Getenv("GO_TEST") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}
