package orchestrator

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/robostack/relsync/internal/repository"
)

// Mock for GitMirror - implements ALL methods from the GitMirror interface
type mockGitMirror struct{ mock.Mock }

func (m *mockGitMirror) Ensure(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockGitMirror) Checkout(ctx context.Context, branch string) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *mockGitMirror) TagsMatching(ctx context.Context, query repository.TagQuery) ([]string, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGitMirror) CommitAt(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *mockGitMirror) LastCommitTime(ctx context.Context, ref string) (time.Time, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockGitMirror) LogRange(ctx context.Context, fromRef, toRef string, limit int) ([]string, error) {
	args := m.Called(ctx, fromRef, toRef, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Mock for RemoteInspector
type mockRemoteInspector struct{ mock.Mock }

func (m *mockRemoteInspector) BranchExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockRemoteInspector) BranchesMatching(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
