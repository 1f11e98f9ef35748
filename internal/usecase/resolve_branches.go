package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/repository"
)

// ResolveBranchesUseCase decides which branches a repository synchronizes for
// the release in flight. The primary branch always comes first; when the
// repository tracks a release-preparation branch, the exact name derived from the base
// version is appended only if it exists remotely. A repository with no
// release branch staged simply syncs the primary branch; that is not an
// error.

type ResolveBranchesUseCase struct {
	Remote repository.RemoteInspector
}

// Execute returns the ordered, de-duplicated branch list.
func (uc *ResolveBranchesUseCase) Execute(
	ctx context.Context,
	spec domain.RepoSpec,
	release domain.ReleaseContext,
) ([]string, error) {
	branches := []string{spec.PrimaryBranch}
	if !spec.WantsReleaseBranch {
		return branches, nil
	}
	candidate := release.ReleaseBranch()
	exists, err := uc.Remote.BranchExists(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("probe release branch %s: %w", candidate, err)
	}
	if exists && candidate != spec.PrimaryBranch {
		branches = append(branches, candidate)
	}
	return branches, nil
}

// StagedReleaseBranches scans remote heads under the release-branch prefix
// and returns those with a version suffix, newest version first. The result
// is advisory: it tells the operator what is staged when the branch for the
// current release is not, it never changes what gets synchronized.
func (uc *ResolveBranchesUseCase) StagedReleaseBranches(ctx context.Context) ([]string, error) {
	names, err := uc.Remote.BranchesMatching(ctx, domain.ReleaseBranchPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan release branches: %w", err)
	}
	type staged struct {
		name    string
		version *semver.Version
	}
	var found []staged
	for _, name := range names {
		suffix := strings.TrimPrefix(name, domain.ReleaseBranchPrefix)
		version, parseErr := semver.StrictNewVersion(suffix)
		if parseErr != nil {
			continue
		}
		found = append(found, staged{name: name, version: version})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].version.GreaterThan(found[j].version) })
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.name)
	}
	return out, nil
}
