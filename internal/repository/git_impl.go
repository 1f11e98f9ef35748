package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/robostack/relsync/internal/domain"
)

// gitMirror is the go-git backed implementation of GitMirror.
type gitMirror struct {
	spec domain.RepoSpec
	fs   afero.Fs
	repo *git.Repository
}

// NewGitMirror binds a mirror to its repository spec. The mirror directory is
// created on the first Ensure and reused across runs.
func NewGitMirror(spec domain.RepoSpec, fs afero.Fs) GitMirror {
	return &gitMirror{spec: spec, fs: fs}
}

func (m *gitMirror) open() (*git.Repository, error) {
	if m.repo != nil {
		return m.repo, nil
	}
	repo, err := git.PlainOpen(m.spec.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("open mirror at %s: %w", m.spec.LocalPath, err)
	}
	m.repo = repo
	return repo, nil
}

// Ensure clones the remote on first use and fetches all heads and tags on
// every later run. Remote failures surface as ErrMirrorUnavailable after the
// retry budget is spent.
func (m *gitMirror) Ensure(ctx context.Context) error {
	cloned, err := afero.DirExists(m.fs, filepath.Join(m.spec.LocalPath, git.GitDirName))
	if err != nil {
		return fmt.Errorf("inspect mirror path %s: %w", m.spec.LocalPath, err)
	}
	backoff := retry.WithMaxRetries(RemoteRetryCount, retry.NewExponential(RemoteRetryDelay))
	if !cloned {
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			repo, cloneErr := git.PlainCloneContext(ctx, m.spec.LocalPath, false, &git.CloneOptions{
				URL:  m.spec.RemoteURL,
				Tags: git.AllTags,
			})
			if cloneErr != nil {
				return retry.RetryableError(cloneErr)
			}
			m.repo = repo
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: clone %s: %v", domain.ErrMirrorUnavailable, m.spec.RemoteURL, err)
		}
		return nil
	}
	repo, err := m.open()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMirrorUnavailable, err)
	}
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetchErr := repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: git.DefaultRemoteName,
			RefSpecs: []gitconfig.RefSpec{
				"+refs/heads/*:refs/remotes/origin/*",
				"+refs/tags/*:refs/tags/*",
			},
			Tags:  git.AllTags,
			Force: true,
		})
		if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
			return retry.RetryableError(fetchErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: fetch %s: %v", domain.ErrMirrorUnavailable, m.spec.Name, err)
	}
	return nil
}

// Checkout makes branch the active working branch, creating a local tracking
// branch from origin when absent and fast-forwarding it otherwise. A diverged
// local branch surfaces as ErrCheckoutConflict.
func (m *gitMirror) Checkout(ctx context.Context, branch string) error {
	repo, err := m.open()
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree for %s: %w", m.spec.Name, err)
	}
	localRef := plumbing.NewBranchReferenceName(branch)
	if _, refErr := repo.Reference(localRef, true); refErr != nil {
		remoteRef, remoteErr := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
		if remoteErr != nil {
			return fmt.Errorf("%w: branch %s has no remote counterpart", domain.ErrNoMatchingBranch, branch)
		}
		if checkoutErr := wt.Checkout(&git.CheckoutOptions{
			Branch: localRef,
			Hash:   remoteRef.Hash(),
			Create: true,
		}); checkoutErr != nil {
			return fmt.Errorf("checkout new branch %s: %w", branch, checkoutErr)
		}
		trackErr := repo.CreateBranch(&gitconfig.Branch{
			Name:   branch,
			Remote: git.DefaultRemoteName,
			Merge:  localRef,
		})
		if trackErr != nil && !errors.Is(trackErr, git.ErrBranchExists) {
			return fmt.Errorf("record tracking for %s: %w", branch, trackErr)
		}
		return nil
	}
	if checkoutErr := wt.Checkout(&git.CheckoutOptions{Branch: localRef}); checkoutErr != nil {
		return fmt.Errorf("checkout %s: %w", branch, checkoutErr)
	}
	pullErr := wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: localRef,
	})
	switch {
	case pullErr == nil, errors.Is(pullErr, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(pullErr, git.ErrNonFastForwardUpdate):
		return fmt.Errorf("%w: branch %s diverged from its remote", domain.ErrCheckoutConflict, branch)
	default:
		return fmt.Errorf("pull %s: %w", branch, pullErr)
	}
}

type tagEntry struct {
	name string
	when time.Time
}

// TagsMatching lists tag names with the query's prefix ordered by creation
// time descending. Creation time is the tagger time for annotated tags and
// the commit time for lightweight ones; tags that resolve to neither are
// skipped. Equal timestamps keep iteration order, so the winner among ties is
// unspecified.
func (m *gitMirror) TagsMatching(ctx context.Context, query TagQuery) ([]string, error) {
	repo, err := m.open()
	if err != nil {
		return nil, err
	}
	var mergeTip *object.Commit
	if query.MergedInto != "" {
		mergeTip, err = m.resolveCommit(query.MergedInto)
		if err != nil {
			return nil, fmt.Errorf("resolve branch %s: %w", query.MergedInto, err)
		}
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", m.spec.Name, err)
	}
	var entries []tagEntry
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := ref.Name().Short()
		if !strings.HasPrefix(name, query.Pattern) {
			return nil
		}
		commit, when, resolveErr := m.resolveTag(ref)
		if resolveErr != nil {
			return nil
		}
		if mergeTip != nil {
			reachable, ancestryErr := commit.IsAncestor(mergeTip)
			if ancestryErr != nil || !reachable {
				return nil
			}
		}
		entries = append(entries, tagEntry{name: name, when: when})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags for %s: %w", m.spec.Name, err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].when.After(entries[j].when) })
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if query.Limit > 0 && len(names) == query.Limit {
			break
		}
		names = append(names, entry.name)
	}
	return names, nil
}

// resolveTag peels a tag ref to its commit and creation time.
func (m *gitMirror) resolveTag(ref *plumbing.Reference) (*object.Commit, time.Time, error) {
	if tagObj, err := m.repo.TagObject(ref.Hash()); err == nil {
		commit, commitErr := tagObj.Commit()
		if commitErr != nil {
			return nil, time.Time{}, commitErr
		}
		return commit, tagObj.Tagger.When, nil
	}
	commit, err := m.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, time.Time{}, err
	}
	return commit, commit.Committer.When, nil
}

// resolveCommit resolves a branch name, tag name, or hash to its commit.
func (m *gitMirror) resolveCommit(ref string) (*object.Commit, error) {
	hash, err := m.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	if commit, commitErr := m.repo.CommitObject(*hash); commitErr == nil {
		return commit, nil
	}
	tagObj, err := m.repo.TagObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("resolve %s to a commit: %w", ref, err)
	}
	return tagObj.Commit()
}

// CommitAt resolves a ref to its commit hash.
func (m *gitMirror) CommitAt(_ context.Context, ref string) (string, error) {
	if _, err := m.open(); err != nil {
		return "", err
	}
	commit, err := m.resolveCommit(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %s in %s: %w", ref, m.spec.Name, err)
	}
	return commit.Hash.String(), nil
}

// LastCommitTime returns the committer time of the ref's commit.
func (m *gitMirror) LastCommitTime(_ context.Context, ref string) (time.Time, error) {
	if _, err := m.open(); err != nil {
		return time.Time{}, err
	}
	commit, err := m.resolveCommit(ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve %s in %s: %w", ref, m.spec.Name, err)
	}
	return commit.Committer.When, nil
}

// LogRange lists up to limit one-line commit summaries reachable from toRef
// but not yet part of fromRef's history. Identical endpoints yield an empty
// list.
func (m *gitMirror) LogRange(_ context.Context, fromRef, toRef string, limit int) ([]string, error) {
	if _, err := m.open(); err != nil {
		return nil, err
	}
	from, err := m.resolveCommit(fromRef)
	if err != nil {
		return nil, fmt.Errorf("resolve %s in %s: %w", fromRef, m.spec.Name, err)
	}
	to, err := m.resolveCommit(toRef)
	if err != nil {
		return nil, fmt.Errorf("resolve %s in %s: %w", toRef, m.spec.Name, err)
	}
	if from.Hash == to.Hash {
		return nil, nil
	}
	iter, err := m.repo.Log(&git.LogOptions{From: to.Hash})
	if err != nil {
		return nil, fmt.Errorf("log %s..%s: %w", fromRef, toRef, err)
	}
	var lines []string
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == from.Hash {
			return storer.ErrStop
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		lines = append(lines, fmt.Sprintf("%s %s", c.Hash.String()[:7], strings.TrimSpace(subject)))
		if limit > 0 && len(lines) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("iterate log %s..%s: %w", fromRef, toRef, err)
	}
	return lines, nil
}
