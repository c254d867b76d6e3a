package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV,
// defaults) so the application layer does not depend on how settings
// were loaded.
type Config interface {
	// Core settings
	Home() string           // Base directory for Oss-Dev state (OSSDEV_HOME)
	OracleType() string     // Oracle backend: openai or mock (OSSDEV_ORACLE)
	OracleModel() string    // Model name passed to the oracle (OSSDEV_MODEL)
	OracleAPIKey() string   // API key for the oracle backend (OSSDEV_API_KEY / OPENAI_API_KEY)
	Timeout() time.Duration // Per-invocation oracle timeout

	// Loop limits
	MaxTurns() int             // Hard cap on turns per loop run
	ContextBudget() int        // Context window budget in estimated tokens
	RetryAttempts() int        // Bounded retry attempts for oracle invocation
	WallClock() time.Duration  // Wall-clock ceiling for one loop run (0 = none)
	LockTTL() time.Duration    // Run lock time-to-live

	// Collaborators
	BranchPattern() string // Branch naming pattern, e.g. fix/issue-{number}
	GitHubToken() string   // Token for GitHub API fallback (OSSDEV_GITHUB_TOKEN / GITHUB_TOKEN)
	MemoryBackend() string // Snapshot store: file or sqlite
	ArchiveBucket() string // Optional S3 bucket for snapshot archival
	ArchivePrefix() string // Key prefix inside the archive bucket

	// Logging
	StderrLevel() string // Minimum stderr log level

	// Metadata
	ConfigSource() string // Source of configuration: "yaml", "env", or "default"
}

// AppConfig is the concrete implementation of Config
type AppConfig struct {
	home         string
	oracleType   string
	oracleModel  string
	oracleAPIKey string
	timeoutSec   int

	maxTurns      int
	contextBudget int
	retryAttempts int
	wallClockSec  int
	lockTTLSec    int

	branchPattern string
	githubToken   string
	memoryBackend string
	archiveBucket string
	archivePrefix string

	stderrLevel  string
	configSource string
}

// NewAppConfig creates a fully populated AppConfig
func NewAppConfig(
	home, oracleType, oracleModel, oracleAPIKey string,
	timeoutSec, maxTurns, contextBudget, retryAttempts, wallClockSec, lockTTLSec int,
	branchPattern, githubToken, memoryBackend, archiveBucket, archivePrefix string,
	stderrLevel, configSource string,
) *AppConfig {
	return &AppConfig{
		home:          home,
		oracleType:    oracleType,
		oracleModel:   oracleModel,
		oracleAPIKey:  oracleAPIKey,
		timeoutSec:    timeoutSec,
		maxTurns:      maxTurns,
		contextBudget: contextBudget,
		retryAttempts: retryAttempts,
		wallClockSec:  wallClockSec,
		lockTTLSec:    lockTTLSec,
		branchPattern: branchPattern,
		githubToken:   githubToken,
		memoryBackend: memoryBackend,
		archiveBucket: archiveBucket,
		archivePrefix: archivePrefix,
		stderrLevel:   stderrLevel,
		configSource:  configSource,
	}
}

func (c *AppConfig) Home() string         { return c.home }
func (c *AppConfig) OracleType() string   { return c.oracleType }
func (c *AppConfig) OracleModel() string  { return c.oracleModel }
func (c *AppConfig) OracleAPIKey() string { return c.oracleAPIKey }

func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.timeoutSec) * time.Second
}

func (c *AppConfig) MaxTurns() int      { return c.maxTurns }
func (c *AppConfig) ContextBudget() int { return c.contextBudget }
func (c *AppConfig) RetryAttempts() int { return c.retryAttempts }

func (c *AppConfig) WallClock() time.Duration {
	return time.Duration(c.wallClockSec) * time.Second
}

func (c *AppConfig) LockTTL() time.Duration {
	return time.Duration(c.lockTTLSec) * time.Second
}

func (c *AppConfig) BranchPattern() string { return c.branchPattern }
func (c *AppConfig) GitHubToken() string   { return c.githubToken }
func (c *AppConfig) MemoryBackend() string { return c.memoryBackend }
func (c *AppConfig) ArchiveBucket() string { return c.archiveBucket }
func (c *AppConfig) ArchivePrefix() string { return c.archivePrefix }
func (c *AppConfig) StderrLevel() string   { return c.stderrLevel }
func (c *AppConfig) ConfigSource() string  { return c.configSource }
