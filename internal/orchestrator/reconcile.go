package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/repository"
	"github.com/robostack/relsync/internal/usecase"
)

// MirrorFactory builds the mirror for one repository spec.
type MirrorFactory func(spec domain.RepoSpec) repository.GitMirror

// InspectorFactory builds the remote-head inspector for one repository spec.
type InspectorFactory func(spec domain.RepoSpec) repository.RemoteInspector

// ReconcileOrchestrator drives ensure → resolve → checkout → collect across
// all managed repositories, joins, and renders the cross-repository report.
// Repositories are independent; one failure never aborts the others.
type ReconcileOrchestrator struct {
	specs        []domain.RepoSpec
	newMirror    MirrorFactory
	newInspector InspectorFactory
	workers      int
	lockPath     string
	log          *zap.Logger
	out          io.Writer
}

// NewReconcileOrchestrator creates the orchestrator. Workers is clamped to
// the repository count; lockPath guards the mirror directories against a
// second concurrent run.
func NewReconcileOrchestrator(
	specs []domain.RepoSpec,
	newMirror MirrorFactory,
	newInspector InspectorFactory,
	workers int,
	lockPath string,
	log *zap.Logger,
	out io.Writer,
) *ReconcileOrchestrator {
	if workers < 1 {
		workers = DefaultWorkerCount
	}
	return &ReconcileOrchestrator{
		specs:        specs,
		newMirror:    newMirror,
		newInspector: newInspector,
		workers:      workers,
		lockPath:     lockPath,
		log:          log,
		out:          out,
	}
}

// Execute runs one reconciliation and renders the report after every
// repository reached a terminal phase. The returned map always carries one
// state per repository; the error is non-nil when any repository failed.
func (o *ReconcileOrchestrator) Execute(
	ctx context.Context,
	release domain.ReleaseContext,
) (map[string]*domain.RepoState, error) {
	runID := uuid.New().String()
	log := o.log.With(zap.String("run_id", runID))

	unlock, err := o.acquireRunLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log.Info("reconciliation started",
		zap.String("channel", string(release.Channel)),
		zap.String("base_version", release.BaseVersion),
		zap.Int("repositories", len(o.specs)))

	mirrors := make(map[string]repository.GitMirror, len(o.specs))
	for _, spec := range o.specs {
		mirrors[spec.Name] = o.newMirror(spec)
	}

	results := make(map[string]*domain.RepoState, len(o.specs))
	var mu sync.Mutex
	tasks := make(chan domain.RepoSpec)
	var wg sync.WaitGroup

	workers := o.workers
	if workers > len(o.specs) {
		workers = len(o.specs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range tasks {
				state := o.processRepo(ctx, log, spec, mirrors[spec.Name], release)
				mu.Lock()
				results[spec.Name] = state
				mu.Unlock()
				if state.Phase == domain.PhaseFailed {
					log.Warn("repository failed", zap.String("repo", spec.Name), zap.Error(state.Err))
				} else {
					log.Info("repository synced", zap.String("repo", spec.Name),
						zap.Int("branches", len(state.Branches)))
				}
			}
		}()
	}
	for _, spec := range o.specs {
		tasks <- spec
	}
	close(tasks)
	wg.Wait()

	renderer := &reportRenderer{out: o.out}
	renderer.render(ctx, runID, o.specs, results, release, mirrors)

	failed := 0
	for _, state := range results {
		if state.Phase != domain.PhaseDone {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d repositories failed to reconcile", failed, len(o.specs))
	}
	return results, nil
}

// acquireRunLock takes the mirror-root lock. Two runs against the same
// mirrors corrupt each other, so losing the lock race is fatal for this run.
func (o *ReconcileOrchestrator) acquireRunLock(ctx context.Context) (func(), error) {
	lock := flock.New(o.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, MirrorLockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, LockRetryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire mirror lock %s: %w", o.lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("another run holds the mirror lock %s", o.lockPath)
	}
	return func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			o.log.Warn("release mirror lock", zap.Error(unlockErr))
		}
	}, nil
}

// processRepo walks one repository through the phase machine. Every failure
// is converted into a Failed state here; nothing escapes to the pool.
func (o *ReconcileOrchestrator) processRepo(
	ctx context.Context,
	log *zap.Logger,
	spec domain.RepoSpec,
	mirror repository.GitMirror,
	release domain.ReleaseContext,
) *domain.RepoState {
	state := domain.NewRepoState()
	state.Phase = domain.PhaseSyncing

	if err := o.withOpTimeout(ctx, mirror.Ensure); err != nil {
		return failState(state, err)
	}

	resolver := &usecase.ResolveBranchesUseCase{Remote: o.newInspector(spec)}
	var branches []string
	err := o.withOpTimeout(ctx, func(opCtx context.Context) error {
		var resolveErr error
		branches, resolveErr = resolver.Execute(opCtx, spec, release)
		return resolveErr
	})
	if err != nil {
		return failState(state, err)
	}
	state.Phase = domain.PhaseBranchResolved

	// The exact release branch not being staged is normal; tell the operator
	// what is staged instead so a typo'd base version is easy to spot.
	if spec.WantsReleaseBranch && !contains(branches, release.ReleaseBranch()) {
		o.logStagedBranches(ctx, log, spec, resolver, release)
	}

	var synced []string
	var failure error
	for _, branch := range branches {
		err := o.withOpTimeout(ctx, func(opCtx context.Context) error {
			return mirror.Checkout(opCtx, branch)
		})
		if err != nil {
			failure = err
			break
		}
		head, headErr := mirror.CommitAt(ctx, branch)
		when, whenErr := mirror.LastCommitTime(ctx, branch)
		if headErr != nil || whenErr != nil {
			failure = errors.Join(headErr, whenErr)
			break
		}
		state.Branches = append(state.Branches, domain.BranchSync{Name: branch, Head: head, LastCommitAt: when})
		synced = append(synced, branch)
	}

	// Branches synced before a conflict still get their tags reported.
	if len(synced) > 0 {
		collector := &usecase.CollectTagsUseCase{Mirror: mirror}
		branchTags, globalLatest, collectErr := collector.Execute(ctx, spec, synced)
		if collectErr != nil {
			if failure == nil {
				failure = collectErr
			}
			log.Warn("tag collection incomplete", zap.String("repo", spec.Name), zap.Error(collectErr))
		} else {
			state.BranchTags = branchTags
			state.GlobalLatest = globalLatest
			state.Phase = domain.PhaseTagsCollected
		}
	}

	if failure != nil {
		return failState(state, failure)
	}
	state.Phase = domain.PhaseDone
	return state
}

func (o *ReconcileOrchestrator) withOpTimeout(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, GitOperationTimeout)
	defer cancel()
	return op(opCtx)
}

func (o *ReconcileOrchestrator) logStagedBranches(
	ctx context.Context,
	log *zap.Logger,
	spec domain.RepoSpec,
	resolver *usecase.ResolveBranchesUseCase,
	release domain.ReleaseContext,
) {
	var staged []string
	err := o.withOpTimeout(ctx, func(opCtx context.Context) error {
		var scanErr error
		staged, scanErr = resolver.StagedReleaseBranches(opCtx)
		return scanErr
	})
	if err != nil {
		log.Debug("release branch scan failed", zap.String("repo", spec.Name), zap.Error(err))
		return
	}
	if len(staged) > 0 {
		log.Info("release branch not staged, others exist",
			zap.String("repo", spec.Name),
			zap.String("wanted", release.ReleaseBranch()),
			zap.Strings("staged", staged))
	}
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func failState(state *domain.RepoState, err error) *domain.RepoState {
	state.Phase = domain.PhaseFailed
	state.Err = err
	return state
}
