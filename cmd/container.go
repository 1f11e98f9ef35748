package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/robostack/relsync/internal/config"
	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/logger"
	"github.com/robostack/relsync/internal/orchestrator"
	"github.com/robostack/relsync/internal/repository"
	"github.com/robostack/relsync/internal/service"
)

// container holds all the dependencies for the application.
type container struct {
	cfg *config.Config
	log *zap.Logger

	fsRepo      repository.FileSystemRepository
	manifestSvc service.ManifestService
	promptSvc   service.PromptService
}

// newContainer creates a new container with all the dependencies.
func newContainer(logLevel string, structuredLogs bool) (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logLevel, structuredLogs)
	if err != nil {
		return nil, err
	}
	return &container{
		cfg:         cfg,
		log:         log,
		fsRepo:      repository.FileSystemRepository(afero.NewOsFs()),
		manifestSvc: service.NewManifestService(),
		promptSvc:   service.NewPromptService(),
	}, nil
}

// newOrchestrator wires the reconciliation orchestrator. GitHub remotes use
// the API inspector when a token is configured; everything else lists
// remote heads over the git protocol.
func (c *container) newOrchestrator() *orchestrator.ReconcileOrchestrator {
	newMirror := func(spec domain.RepoSpec) repository.GitMirror {
		return repository.NewGitMirror(spec, c.fsRepo)
	}
	newInspector := func(spec domain.RepoSpec) repository.RemoteInspector {
		if c.cfg.GithubToken != "" {
			if _, _, ok := repository.ParseGitHubRemote(spec.RemoteURL); ok {
				inspector, err := repository.NewGithubRemoteInspector(c.cfg.GithubToken, spec.RemoteURL)
				if err == nil {
					return inspector
				}
				c.log.Warn("github inspector unavailable, falling back to ls-remote",
					zap.String("repo", spec.Name), zap.Error(err))
			}
		}
		return repository.NewGitRemoteInspector(spec.RemoteURL)
	}
	return orchestrator.NewReconcileOrchestrator(
		c.cfg.RepoSpecs(),
		newMirror,
		newInspector,
		c.cfg.Workers,
		filepath.Join(c.cfg.MirrorRoot, orchestrator.LockFileName),
		c.log,
		rootCmd.OutOrStdout(),
	)
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	var (
		logLevel       string
		structuredLogs bool
	)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&structuredLogs, "log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(newSyncCmd(func() (*container, error) {
		return newContainer(logLevel, structuredLogs)
	}))
	rootCmd.AddCommand(newManifestsCmd(func() (*container, error) {
		return newContainer(logLevel, structuredLogs)
	}))
	rootCmd.AddCommand(newVersionCmd())
	return nil
}
