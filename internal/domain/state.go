package domain

import "time"

// SyncPhase tracks a repository through one reconciliation run.
type SyncPhase string

const (
	PhasePending        SyncPhase = "pending"
	PhaseSyncing        SyncPhase = "syncing"
	PhaseBranchResolved SyncPhase = "branch_resolved"
	PhaseTagsCollected  SyncPhase = "tags_collected"
	PhaseDone           SyncPhase = "done"
	PhaseFailed         SyncPhase = "failed"
)

// BranchSync records one successfully synchronized branch.
type BranchSync struct {
	Name         string
	Head         string
	LastCommitAt time.Time
}

// RepoState is the per-repository result of a run. Branch order follows the
// resolver's output; every declared tag pattern has an entry for every branch,
// possibly empty. Built fresh each run, never persisted.
type RepoState struct {
	Phase        SyncPhase
	Branches     []BranchSync
	BranchTags   map[string]map[string][]string
	GlobalLatest map[string]string
	Err          error
}

// NewRepoState returns a RepoState in its initial phase.
func NewRepoState() *RepoState {
	return &RepoState{
		Phase:        PhasePending,
		BranchTags:   make(map[string]map[string][]string),
		GlobalLatest: make(map[string]string),
	}
}

// HasBranch reports whether the named branch was synchronized this run.
func (s *RepoState) HasBranch(name string) bool {
	_, ok := s.BranchTags[name]
	return ok
}

// SelectedBranch picks the branch downstream summaries read from: the
// release-preparation branch when it was synchronized, else the primary.
func (s *RepoState) SelectedBranch(releaseBranch, primaryBranch string) string {
	if s.HasBranch(releaseBranch) {
		return releaseBranch
	}
	return primaryBranch
}

// LatestOn returns the newest tag recorded for a pattern on a branch, or ""
// when the pattern matched nothing there.
func (s *RepoState) LatestOn(branch, pattern string) string {
	tags := s.BranchTags[branch][pattern]
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}
