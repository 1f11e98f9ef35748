package repository

import (
	"context"
	"time"
)

// TagQuery filters and bounds a tag listing. Pattern is a literal name
// prefix; MergedInto, when set, restricts results to tags reachable from that
// branch; Limit of zero means unbounded. Results are ordered by tag-creation
// time, newest first.
type TagQuery struct {
	Pattern    string
	MergedInto string
	Limit      int
}

// GitMirror owns the local clone of one remote repository. Ensure and
// Checkout mutate only the mirror; nothing here ever writes to the remote.
type GitMirror interface {
	Ensure(ctx context.Context) error
	Checkout(ctx context.Context, branch string) error
	TagsMatching(ctx context.Context, query TagQuery) ([]string, error)
	CommitAt(ctx context.Context, ref string) (string, error)
	LastCommitTime(ctx context.Context, ref string) (time.Time, error)
	LogRange(ctx context.Context, fromRef, toRef string, limit int) ([]string, error)
}

// RemoteInspector answers questions about a repository's remote heads without
// touching the local mirror.
type RemoteInspector interface {
	BranchExists(ctx context.Context, name string) (bool, error)
	BranchesMatching(ctx context.Context, prefix string) ([]string, error)
}
