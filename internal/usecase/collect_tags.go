package usecase

import (
	"context"
	"fmt"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/repository"
)

// MergedTagWindow bounds how many recent tags are kept per branch and pattern.
const MergedTagWindow = 7

// CollectTagsUseCase gathers, for each synchronized branch and each declared
// tag pattern, the recent tags merged into that branch, plus the single
// newest tag per pattern anywhere in the repository. The merged and global
// views are deliberately separate queries; when they disagree the operator
// wants to see it.

type CollectTagsUseCase struct {
	Mirror repository.GitMirror
}

// Execute fills branchTags[branch][pattern] for every branch and pattern
// (empty slice when nothing matches) and globalLatest[pattern] ("" when the
// repository has no such tag at all).
func (uc *CollectTagsUseCase) Execute(
	ctx context.Context,
	spec domain.RepoSpec,
	branches []string,
) (branchTags map[string]map[string][]string, globalLatest map[string]string, err error) {
	patterns := spec.TagPatterns()
	branchTags = make(map[string]map[string][]string, len(branches))
	for _, branch := range branches {
		perPattern := make(map[string][]string, len(patterns))
		for _, pattern := range patterns {
			tags, listErr := uc.Mirror.TagsMatching(ctx, repository.TagQuery{
				Pattern:    pattern,
				MergedInto: branch,
				Limit:      MergedTagWindow,
			})
			if listErr != nil {
				return nil, nil, fmt.Errorf("tags %q merged into %s: %w", pattern, branch, listErr)
			}
			if tags == nil {
				tags = []string{}
			}
			perPattern[pattern] = tags
		}
		branchTags[branch] = perPattern
	}
	globalLatest = make(map[string]string, len(patterns))
	for _, pattern := range patterns {
		tags, listErr := uc.Mirror.TagsMatching(ctx, repository.TagQuery{Pattern: pattern, Limit: 1})
		if listErr != nil {
			return nil, nil, fmt.Errorf("newest tag for %q: %w", pattern, listErr)
		}
		if len(tags) > 0 {
			globalLatest[pattern] = tags[0]
		} else {
			globalLatest[pattern] = ""
		}
	}
	return branchTags, globalLatest, nil
}
