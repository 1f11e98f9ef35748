package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

// githubRemoteInspector answers remote-head queries through the GitHub API.
// Used instead of ls-remote when a token is configured and the remote lives
// on github.com; a branch-existence probe is a single authenticated GET there.
type githubRemoteInspector struct {
	client *github.Client
	owner  string
	repo   string
}

// ParseGitHubRemote extracts owner and repository name from a github.com
// remote URL. Returns false for remotes hosted elsewhere.
func ParseGitHubRemote(url string) (owner, repo string, ok bool) {
	var path string
	switch {
	case strings.HasPrefix(url, "https://github.com/"):
		path = strings.TrimPrefix(url, "https://github.com/")
	case strings.HasPrefix(url, "git@github.com:"):
		path = strings.TrimPrefix(url, "git@github.com:")
	default:
		return "", "", false
	}
	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// NewGithubRemoteInspector builds the API-backed inspector for a github.com
// remote URL.
func NewGithubRemoteInspector(token, remoteURL string) (RemoteInspector, error) {
	owner, repo, ok := ParseGitHubRemote(remoteURL)
	if !ok {
		return nil, fmt.Errorf("remote %s is not hosted on github.com", remoteURL)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})
	tc := oauth2.NewClient(context.Background(), ts)
	return &githubRemoteInspector{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

func (i *githubRemoteInspector) BranchExists(ctx context.Context, name string) (bool, error) {
	_, resp, err := i.client.Repositories.GetBranch(ctx, i.owner, i.repo, name, 0)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("query branch %s on %s/%s: %w", name, i.owner, i.repo, err)
	}
	return true, nil
}

func (i *githubRemoteInspector) BranchesMatching(ctx context.Context, prefix string) ([]string, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var names []string
	for {
		branches, resp, err := i.client.Repositories.ListBranches(ctx, i.owner, i.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list branches of %s/%s: %w", i.owner, i.repo, err)
		}
		for _, branch := range branches {
			if strings.HasPrefix(branch.GetName(), prefix) {
				names = append(names, branch.GetName())
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}
