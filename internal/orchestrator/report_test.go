package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/repository"
)

func reportSpec() domain.RepoSpec {
	return domain.RepoSpec{
		Name:               "buildroot",
		RemoteURL:          "https://example.com/org/buildroot.git",
		PrimaryBranch:      "main",
		WantsReleaseBranch: true,
		ExternalTagPattern: "v",
		InternalTagPattern: "internal@",
	}
}

func doneState(branch, tag string) *domain.RepoState {
	state := domain.NewRepoState()
	state.Phase = domain.PhaseDone
	state.Branches = []domain.BranchSync{{Name: branch, Head: "aaaa111", LastCommitAt: testEpoch}}
	state.BranchTags = map[string]map[string][]string{
		branch: {"v": {}, "internal@": {}},
	}
	state.GlobalLatest = map[string]string{"v": tag, "internal@": ""}
	if tag != "" {
		state.BranchTags[branch]["v"] = []string{tag}
	}
	return state
}

func TestReportRenderer(t *testing.T) {
	release, err := domain.NewReleaseContext(domain.ChannelExternal, "stable", "8.4.1")
	require.NoError(t, err)

	t.Run("Should render the compare URL for the selected branch", func(t *testing.T) {
		spec := reportSpec()
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderCompareTable([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "v8.4.0")}, release)

		assert.Contains(t, out.String(), "External Compare URLs")
		assert.Contains(t, out.String(), "https://example.com/org/buildroot/compare/v8.4.0...main")
	})
	t.Run("Should prefer the release branch in the compare URL when synced", func(t *testing.T) {
		spec := reportSpec()
		state := doneState("chore_release-8.4.1", "v8.4.0")
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderCompareTable([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": state}, release)

		assert.Contains(t, out.String(),
			"https://example.com/org/buildroot/compare/v8.4.0...chore_release-8.4.1")
	})
	t.Run("Should mark repositories without a matching tag as none", func(t *testing.T) {
		spec := reportSpec()
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderCompareTable([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "")}, release)

		assert.Contains(t, out.String(), "none")
		assert.NotContains(t, out.String(), "compare/")
	})
	t.Run("Should title the table after the internal channel", func(t *testing.T) {
		internal, err := domain.NewReleaseContext(domain.ChannelInternal, "alpha", "8.4.1")
		require.NoError(t, err)
		spec := reportSpec()
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderCompareTable([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "")}, internal)

		assert.Contains(t, out.String(), "Internal Compare URLs")
	})
	t.Run("Should show failed repositories in the status table only", func(t *testing.T) {
		spec := reportSpec()
		state := domain.NewRepoState()
		state.Phase = domain.PhaseFailed
		state.Err = errors.New("remote unreachable")
		results := map[string]*domain.RepoState{"buildroot": state}

		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderSyncStatus([]domain.RepoSpec{spec}, results)
		assert.Contains(t, out.String(), "failed")
		assert.Contains(t, out.String(), "remote unreachable")

		out.Reset()
		r.renderCompareTable([]domain.RepoSpec{spec}, results, release)
		assert.NotContains(t, out.String(), "buildroot")
	})
	t.Run("Should print the no-changes notice when tip and tag coincide", func(t *testing.T) {
		spec := reportSpec()
		mirror := new(mockGitMirror)
		mirror.On("CommitAt", mock.Anything, "main").Return("aaaa111", nil)
		mirror.On("CommitAt", mock.Anything, "v8.4.0").Return("aaaa111", nil)

		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderChangeLogs(context.Background(), []domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "v8.4.0")}, release,
			map[string]repository.GitMirror{"buildroot": mirror})

		assert.Contains(t, out.String(), "No changes in buildroot since v8.4.0 on main")
	})
	t.Run("Should print a bounded change log when the branch moved past the tag", func(t *testing.T) {
		spec := reportSpec()
		lines := make([]string, ChangeLogLimit)
		for i := range lines {
			lines[i] = fmt.Sprintf("%07x commit %d", i+1, i+1)
		}
		mirror := new(mockGitMirror)
		mirror.On("CommitAt", mock.Anything, "main").Return("bbbb222", nil)
		mirror.On("CommitAt", mock.Anything, "v8.4.0").Return("aaaa111", nil)
		mirror.On("LogRange", mock.Anything, "v8.4.0", "main", ChangeLogLimit).Return(lines, nil)

		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderChangeLogs(context.Background(), []domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "v8.4.0")}, release,
			map[string]repository.GitMirror{"buildroot": mirror})

		assert.Contains(t, out.String(), "buildroot changes: v8.4.0...main")
		assert.Contains(t, out.String(), "commit 1")
		assert.Contains(t, out.String(), fmt.Sprintf("commit %d", ChangeLogLimit))
		mirror.AssertCalled(t, "LogRange", mock.Anything, "v8.4.0", "main", ChangeLogLimit)
	})
	t.Run("Should include branch sync timestamps in the status table", func(t *testing.T) {
		spec := reportSpec()
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderSyncStatus([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "v8.4.0")})

		assert.Contains(t, out.String(), testEpoch.Format(timestampLayout))
	})
	t.Run("Should list the newest tag anywhere next to the merged latest", func(t *testing.T) {
		spec := reportSpec()
		state := doneState("main", "v8.4.0")
		state.GlobalLatest["v"] = "v8.5.0"
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderLatestTags([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": state}, release)

		assert.Contains(t, out.String(), "v8.4.0")
		assert.Contains(t, out.String(), "v8.5.0")
		assert.Contains(t, out.String(), "not on main")
	})
	t.Run("Should not flag a branch whose merged latest matches the newest", func(t *testing.T) {
		spec := reportSpec()
		var out bytes.Buffer
		r := &reportRenderer{out: &out}
		r.renderLatestTags([]domain.RepoSpec{spec},
			map[string]*domain.RepoState{"buildroot": doneState("main", "v8.4.0")}, release)

		assert.NotContains(t, out.String(), "not on main")
	})
}

func TestBranchLagsNewest(t *testing.T) {
	t.Run("Should flag a branch behind the newest tag", func(t *testing.T) {
		assert.True(t, branchLagsNewest("v", "v8.4.0", "v8.5.0"))
	})
	t.Run("Should flag a branch with no matching tag at all", func(t *testing.T) {
		assert.True(t, branchLagsNewest("v", "", "v8.5.0"))
	})
	t.Run("Should not flag equal tags", func(t *testing.T) {
		assert.False(t, branchLagsNewest("v", "v8.5.0", "v8.5.0"))
	})
	t.Run("Should not flag when either tag is outside the version grammar", func(t *testing.T) {
		assert.False(t, branchLagsNewest("v", "v8.4.0", "vnext"))
		assert.False(t, branchLagsNewest("v", "vnext", "v8.5.0"))
	})
}
