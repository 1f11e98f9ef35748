package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	t.Run("Should accept both channels case-insensitively", func(t *testing.T) {
		ch, err := ParseChannel("Internal")
		require.NoError(t, err)
		assert.Equal(t, ChannelInternal, ch)
		ch, err = ParseChannel("external")
		require.NoError(t, err)
		assert.Equal(t, ChannelExternal, ch)
	})
	t.Run("Should reject unknown channels", func(t *testing.T) {
		_, err := ParseChannel("canary")
		assert.Error(t, err)
	})
}

func TestNewReleaseContext(t *testing.T) {
	t.Run("Should normalize the base version to a v prefix", func(t *testing.T) {
		rc, err := NewReleaseContext(ChannelExternal, "stable", "8.4.1")
		require.NoError(t, err)
		assert.Equal(t, "v8.4.1", rc.BaseVersion)
	})
	t.Run("Should keep an existing v prefix", func(t *testing.T) {
		rc, err := NewReleaseContext(ChannelInternal, "unstable", "v8.4.1")
		require.NoError(t, err)
		assert.Equal(t, "v8.4.1", rc.BaseVersion)
	})
	t.Run("Should reject an empty base version", func(t *testing.T) {
		_, err := NewReleaseContext(ChannelExternal, "stable", "  ")
		assert.Error(t, err)
	})
}

func TestReleaseContextReleaseBranch(t *testing.T) {
	t.Run("Should strip the prefix character and prepend the branch literal", func(t *testing.T) {
		rc, err := NewReleaseContext(ChannelExternal, "stable", "v8.4.1")
		require.NoError(t, err)
		assert.Equal(t, "chore_release-8.4.1", rc.ReleaseBranch())
	})
}

func TestRepoSpec(t *testing.T) {
	spec := RepoSpec{
		Name:               "buildroot",
		RemoteURL:          "https://example.com/org/repo.git",
		PrimaryBranch:      "main",
		ExternalTagPattern: "v",
		InternalTagPattern: "internal@",
	}
	t.Run("Should keep tag patterns in declaration order", func(t *testing.T) {
		assert.Equal(t, []string{"v", "internal@"}, spec.TagPatterns())
	})
	t.Run("Should map channels to patterns", func(t *testing.T) {
		assert.Equal(t, "v", spec.PatternFor(ChannelExternal))
		assert.Equal(t, "internal@", spec.PatternFor(ChannelInternal))
	})
	t.Run("Should render compare links without the .git suffix", func(t *testing.T) {
		url := spec.CompareURL("v1.2.3", "main")
		assert.Equal(t, "https://example.com/org/repo/compare/v1.2.3...main", url)
	})
}

func TestRepoState(t *testing.T) {
	t.Run("Should prefer the release branch when it was synchronized", func(t *testing.T) {
		st := NewRepoState()
		st.BranchTags["chore_release-8.4.1"] = map[string][]string{"v": {}}
		assert.Equal(t, "chore_release-8.4.1", st.SelectedBranch("chore_release-8.4.1", "main"))
	})
	t.Run("Should fall back to the primary branch", func(t *testing.T) {
		st := NewRepoState()
		st.BranchTags["main"] = map[string][]string{"v": {"v1.0.0"}}
		assert.Equal(t, "main", st.SelectedBranch("chore_release-8.4.1", "main"))
	})
	t.Run("Should expose the newest tag per branch and pattern", func(t *testing.T) {
		st := NewRepoState()
		st.BranchTags["main"] = map[string][]string{"v": {"v2.0.0", "v1.0.0"}, "internal@": {}}
		assert.Equal(t, "v2.0.0", st.LatestOn("main", "v"))
		assert.Empty(t, st.LatestOn("main", "internal@"))
		assert.Empty(t, st.LatestOn("missing", "v"))
	})
}
