package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/sethvargo/go-retry"
)

// gitRemoteInspector answers remote-head queries with an anonymous ls-remote
// against the repository URL. Works for any git host.
type gitRemoteInspector struct {
	url string
}

// NewGitRemoteInspector builds the ls-remote based inspector.
func NewGitRemoteInspector(url string) RemoteInspector {
	return &gitRemoteInspector{url: url}
}

func (i *gitRemoteInspector) listHeads(ctx context.Context) ([]*plumbing.Reference, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{i.url},
	})
	var refs []*plumbing.Reference
	err := retry.Do(ctx, retry.WithMaxRetries(RemoteRetryCount, retry.NewExponential(RemoteRetryDelay)),
		func(ctx context.Context) error {
			listed, listErr := remote.ListContext(ctx, &git.ListOptions{})
			if listErr != nil {
				return retry.RetryableError(listErr)
			}
			refs = listed
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list remote heads of %s: %w", i.url, err)
	}
	return refs, nil
}

func (i *gitRemoteInspector) BranchExists(ctx context.Context, name string) (bool, error) {
	refs, err := i.listHeads(ctx)
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		if ref.Name().IsBranch() && ref.Name().Short() == name {
			return true, nil
		}
	}
	return false, nil
}

func (i *gitRemoteInspector) BranchesMatching(ctx context.Context, prefix string) ([]string, error) {
	refs, err := i.listHeads(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ref := range refs {
		if ref.Name().IsBranch() && strings.HasPrefix(ref.Name().Short(), prefix) {
			names = append(names, ref.Name().Short())
		}
	}
	return names, nil
}
