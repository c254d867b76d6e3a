package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/oracle"
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/storage"
	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/app/config"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
	journalrepo "github.com/Hell1213/Oss-Dev/internal/infra/repository/journal"
	lockrepo "github.com/Hell1213/Oss-Dev/internal/infra/repository/lock"
	memrepo "github.com/Hell1213/Oss-Dev/internal/infra/repository/memory"
)

// Container wires the infrastructure a command needs from the loaded
// configuration. Close releases whatever backends hold resources.
type Container struct {
	Config  config.Config
	Logger  app.Logger
	Paths   app.Paths
	Fs      afero.Fs
	Memory  memory.Repository
	Notes   *memrepo.NotesStore
	Journal *journalrepo.FileJournal
	Locks   service.LockService
	GitHub  github.Gateway
	Archive output.ArchiveGateway

	closers []io.Closer
}

// InitializeContainer builds the shared infrastructure. The oracle
// gateway is built separately because only run-style commands need it.
func InitializeContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	fs := afero.NewOsFs()
	logger := app.NewLogger(cfg.StderrLevel())
	paths := app.NewPaths(cfg.Home())

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Paths:   paths,
		Fs:      fs,
		Notes:   memrepo.NewNotesStore(fs, paths.BranchesDir()),
		Journal: journalrepo.NewFileJournal(fs, paths.JournalFile()),
		Locks:   service.NewLockService(lockrepo.NewFileLockRepository(fs, paths.LocksDir())),
	}

	switch cfg.MemoryBackend() {
	case "sqlite":
		repo, err := memrepo.OpenSQLiteRepository(paths.SnapshotDB())
		if err != nil {
			return nil, fmt.Errorf("open snapshot db: %w", err)
		}
		c.Memory = repo
		c.closers = append(c.closers, repo)
	case "", "file":
		c.Memory = memrepo.NewFileRepository(fs, paths.BranchesDir())
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.MemoryBackend())
	}

	c.GitHub = buildGitHubGateway(ctx, cfg, logger)

	if cfg.ArchiveBucket() != "" {
		gw, err := storage.NewS3ArchiveGateway(ctx, storage.S3Config{
			Bucket: cfg.ArchiveBucket(),
			Prefix: cfg.ArchivePrefix(),
		})
		if err != nil {
			return nil, fmt.Errorf("init archive gateway: %w", err)
		}
		c.Archive = gw
	}

	return c, nil
}

// buildGitHubGateway prefers the gh CLI and falls back to the REST API
// when a token is configured and the CLI is unavailable.
func buildGitHubGateway(ctx context.Context, cfg config.Config, logger app.Logger) github.Gateway {
	cliGW := github.NewCLIGateway(logger)
	if cfg.GitHubToken() == "" {
		return cliGW
	}
	apiGW, err := github.NewAPIGateway(ctx, cfg.GitHubToken())
	if err != nil {
		logger.Warn("github API gateway unavailable, using gh CLI only: %v", err)
		return cliGW
	}
	return github.NewFallbackGateway(cliGW, apiGW)
}

// BuildOracle constructs the configured reasoning gateway with retries.
func (c *Container) BuildOracle() (output.OracleGateway, error) {
	return oracle.NewFromConfig(c.Config, c.Logger)
}

// Close releases backend resources held by the container
func (c *Container) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
