package domain

import "errors"

// Sentinel errors for the failure taxonomy. Callers wrap these with
// fmt.Errorf("...: %w", ...) and branch with errors.Is.
var (
	// ErrMirrorUnavailable marks a remote that cannot be cloned or fetched,
	// or a local path that is not a usable mirror of it.
	ErrMirrorUnavailable = errors.New("mirror unavailable")
	// ErrCheckoutConflict marks a local branch that diverged from its remote
	// and cannot fast-forward. Reported, never auto-resolved.
	ErrCheckoutConflict = errors.New("checkout conflict")
	// ErrNoMatchingBranch marks a branch name with no local or remote
	// counterpart.
	ErrNoMatchingBranch = errors.New("no matching branch")
	// ErrUnparseableVersion marks an identifier outside the version grammar.
	// Such tags are unorderable, not fatal.
	ErrUnparseableVersion = errors.New("unparseable version")
)
