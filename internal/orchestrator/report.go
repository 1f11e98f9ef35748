package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/repository"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	absentStyle = lipgloss.NewStyle().Italic(true)
	errorStyle  = lipgloss.NewStyle().Bold(true)
)

// reportRenderer turns the joined per-repository states into the operator
// tables: sync status, latest tags, compare links, and bounded change logs.
type reportRenderer struct {
	out io.Writer
}

func (r *reportRenderer) render(
	ctx context.Context,
	runID string,
	specs []domain.RepoSpec,
	results map[string]*domain.RepoState,
	release domain.ReleaseContext,
	mirrors map[string]repository.GitMirror,
) {
	fmt.Fprintf(r.out, "Release: %s  Stability: %s  Version: %s  (run %s)\n\n",
		release.Channel, release.Stability, release.BaseVersion, runID)
	r.renderSyncStatus(specs, results)
	r.renderLatestTags(specs, results, release)
	r.renderCompareTable(specs, results, release)
	r.renderChangeLogs(ctx, specs, results, release, mirrors)
}

func (r *reportRenderer) renderSyncStatus(specs []domain.RepoSpec, results map[string]*domain.RepoState) {
	t := table.New().Border(lipgloss.NormalBorder()).Headers("Repo", "Status", "Branches", "Detail")
	for _, spec := range specs {
		state, ok := results[spec.Name]
		if !ok {
			continue
		}
		var branches []string
		for _, sync := range state.Branches {
			branches = append(branches, fmt.Sprintf("%s (%s)", sync.Name, sync.LastCommitAt.Format(timestampLayout)))
		}
		detail := "-"
		if state.Err != nil {
			detail = errorStyle.Render(state.Err.Error())
		}
		t.Row(spec.Name, string(state.Phase), strings.Join(branches, "\n"), detail)
	}
	fmt.Fprintln(r.out, titleStyle.Render("Repository Sync Status"))
	fmt.Fprintln(r.out, t.Render())
}

func (r *reportRenderer) renderLatestTags(
	specs []domain.RepoSpec,
	results map[string]*domain.RepoState,
	release domain.ReleaseContext,
) {
	t := table.New().Border(lipgloss.NormalBorder()).
		Headers("Repo", "Pattern", "Latest Tag", "Newest Anywhere", "Branch")
	for _, spec := range specs {
		state, ok := results[spec.Name]
		if !ok || len(state.BranchTags) == 0 {
			continue
		}
		pattern := spec.PatternFor(release.Channel)
		branch := state.SelectedBranch(release.ReleaseBranch(), spec.PrimaryBranch)
		merged := state.LatestOn(branch, pattern)
		newest := state.GlobalLatest[pattern]
		latest := merged
		if latest == "" {
			latest = absentStyle.Render("none")
		}
		newestCell := newest
		if newest == "" {
			newestCell = absentStyle.Render("none")
		} else if branchLagsNewest(pattern, merged, newest) {
			newestCell = errorStyle.Render(newest + " (not on " + branch + ")")
		}
		t.Row(spec.Name, pattern, latest, newestCell, branch)
	}
	fmt.Fprintln(r.out, titleStyle.Render("Latest Tags Summary"))
	fmt.Fprintln(r.out, t.Render())
}

// branchLagsNewest reports whether the repository-wide newest tag is ahead
// of the newest tag merged into the selected branch. Tags outside the version
// grammar stay unordered, so only an unambiguous lag is flagged.
func branchLagsNewest(pattern, merged, newest string) bool {
	if merged == "" {
		return true
	}
	if merged == newest {
		return false
	}
	mergedTag, err := domain.ParseVersionTag(pattern, merged)
	if err != nil {
		return false
	}
	newestTag, err := domain.ParseVersionTag(pattern, newest)
	if err != nil {
		return false
	}
	cmp, err := mergedTag.Compare(newestTag)
	if err != nil {
		return false
	}
	return cmp < 0
}

func (r *reportRenderer) renderCompareTable(
	specs []domain.RepoSpec,
	results map[string]*domain.RepoState,
	release domain.ReleaseContext,
) {
	title := "External Compare URLs"
	if release.Channel == domain.ChannelInternal {
		title = "Internal Compare URLs"
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers("Repo", "Compare")
	for _, spec := range specs {
		state, ok := results[spec.Name]
		if !ok || len(state.BranchTags) == 0 {
			continue
		}
		branch := state.SelectedBranch(release.ReleaseBranch(), spec.PrimaryBranch)
		tag := state.LatestOn(branch, spec.PatternFor(release.Channel))
		if tag == "" {
			t.Row(spec.Name, absentStyle.Render("none"))
			continue
		}
		t.Row(spec.Name, spec.CompareURL(tag, branch))
	}
	fmt.Fprintln(r.out, titleStyle.Render(title))
	fmt.Fprintln(r.out, t.Render())
}

func (r *reportRenderer) renderChangeLogs(
	ctx context.Context,
	specs []domain.RepoSpec,
	results map[string]*domain.RepoState,
	release domain.ReleaseContext,
	mirrors map[string]repository.GitMirror,
) {
	for _, spec := range specs {
		state, ok := results[spec.Name]
		if !ok || len(state.BranchTags) == 0 {
			continue
		}
		branch := state.SelectedBranch(release.ReleaseBranch(), spec.PrimaryBranch)
		tag := state.LatestOn(branch, spec.PatternFor(release.Channel))
		if tag == "" {
			continue
		}
		mirror := mirrors[spec.Name]
		head, headErr := mirror.CommitAt(ctx, branch)
		tagCommit, tagErr := mirror.CommitAt(ctx, tag)
		if headErr != nil || tagErr != nil {
			continue
		}
		if head == tagCommit {
			fmt.Fprintf(r.out, "No changes in %s since %s on %s\n", spec.Name, tag, branch)
			continue
		}
		lines, err := mirror.LogRange(ctx, tag, branch, ChangeLogLimit)
		if err != nil {
			continue
		}
		fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("%s changes: %s...%s", spec.Name, tag, branch)))
		for _, line := range lines {
			fmt.Fprintln(r.out, line)
		}
		fmt.Fprintln(r.out)
	}
}
