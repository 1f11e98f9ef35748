package domain

import (
	"fmt"
	"strings"
)

// Channel is the release track a run evaluates.
type Channel string

const (
	ChannelInternal Channel = "internal"
	ChannelExternal Channel = "external"
)

// ReleaseBranchPrefix is the naming convention for release-preparation
// branches: prefix plus the dotted version without its leading "v".
const ReleaseBranchPrefix = "chore_release-"

// ParseChannel validates an operator-supplied channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelInternal:
		return ChannelInternal, nil
	case ChannelExternal:
		return ChannelExternal, nil
	}
	return "", fmt.Errorf("unknown release channel %q (expected internal or external)", s)
}

// RepoSpec describes one managed repository's sync policy. Instances are
// built from static configuration at process start and never mutated.
type RepoSpec struct {
	Name               string
	RemoteURL          string
	LocalPath          string
	PrimaryBranch      string
	WantsReleaseBranch bool
	ExternalTagPattern string
	InternalTagPattern string
}

// TagPatterns returns the channel tag patterns in declaration order.
func (s RepoSpec) TagPatterns() []string {
	return []string{s.ExternalTagPattern, s.InternalTagPattern}
}

// PatternFor returns the tag pattern for the given channel.
func (s RepoSpec) PatternFor(ch Channel) string {
	if ch == ChannelInternal {
		return s.InternalTagPattern
	}
	return s.ExternalTagPattern
}

// CompareBase is the hosted URL prefix for compare links, the remote URL
// with its ".git" suffix stripped.
func (s RepoSpec) CompareBase() string {
	return strings.TrimSuffix(s.RemoteURL, ".git")
}

// CompareURL renders the hosted diff link between a tag and a branch tip.
func (s RepoSpec) CompareURL(tag, branch string) string {
	return fmt.Sprintf("%s/compare/%s...%s", s.CompareBase(), tag, branch)
}

// ReleaseContext is the release being evaluated, built once per run from
// operator input and read-only thereafter.
type ReleaseContext struct {
	Channel     Channel
	Stability   string
	BaseVersion string
}

// NewReleaseContext normalizes operator input: the base version always
// carries a leading "v".
func NewReleaseContext(channel Channel, stability, baseVersion string) (ReleaseContext, error) {
	baseVersion = strings.TrimSpace(baseVersion)
	if baseVersion == "" {
		return ReleaseContext{}, fmt.Errorf("base version cannot be empty")
	}
	if !strings.HasPrefix(baseVersion, "v") {
		baseVersion = "v" + baseVersion
	}
	return ReleaseContext{Channel: channel, Stability: stability, BaseVersion: baseVersion}, nil
}

// ReleaseBranch derives the release-preparation branch name for this
// release: strip the version prefix, prepend the conventional literal.
func (c ReleaseContext) ReleaseBranch() string {
	return ReleaseBranchPrefix + strings.TrimPrefix(c.BaseVersion, "v")
}
