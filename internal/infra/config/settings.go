package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Hell1213/Oss-Dev/internal/app/config"
)

// RawSettings is the on-disk shape of setting.yml. Pointer fields
// distinguish "absent" from "zero" so defaults only fill real gaps.
type RawSettings struct {
	// Core settings
	Home         *string `yaml:"home"`
	Oracle       *string `yaml:"oracle"`
	Model        *string `yaml:"model"`
	APIKey       *string `yaml:"api_key"`
	TimeoutSec   *int    `yaml:"timeout_sec"`

	// Loop limits
	MaxTurns      *int `yaml:"max_turns"`
	ContextBudget *int `yaml:"context_budget"`
	RetryAttempts *int `yaml:"retry_attempts"`
	WallClockSec  *int `yaml:"wall_clock_sec"`
	LockTTLSec    *int `yaml:"lock_ttl_sec"`

	// Collaborators
	BranchPattern *string `yaml:"branch_pattern"`
	GitHubToken   *string `yaml:"github_token"`
	MemoryBackend *string `yaml:"memory_backend"`
	ArchiveBucket *string `yaml:"archive_bucket"`
	ArchivePrefix *string `yaml:"archive_prefix"`

	// Logging
	StderrLevel *string `yaml:"stderr_level"`
}

// LoadSettings builds the application configuration.
// Priority: setting.yml > environment (OSSDEV_*) > defaults.
func LoadSettings(fs afero.Fs, baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"

	if applyEnv(settings) {
		configSource = "env"
	}

	// Keys present in setting.yml overwrite env values; absent keys
	// leave them standing.
	yamlPath := filepath.Join(baseDir, "setting.yml")
	if data, err := afero.ReadFile(fs, yamlPath); err == nil {
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
		configSource = "yaml"
	}

	applyDefaults(settings)

	return buildAppConfig(settings, configSource), nil
}

// applyEnv maps OSSDEV_* variables onto settings and reports whether
// any variable took effect. The API key and GitHub token also fall
// back to their conventional variables.
func applyEnv(settings *RawSettings) bool {
	overridden := false

	setStr := func(dst **string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = &v
				overridden = true
				return
			}
		}
	}
	setInt := func(dst **int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = &n
				overridden = true
			}
		}
	}

	setStr(&settings.Home, "OSSDEV_HOME")
	setStr(&settings.Oracle, "OSSDEV_ORACLE")
	setStr(&settings.Model, "OSSDEV_MODEL")
	setStr(&settings.APIKey, "OSSDEV_API_KEY", "OPENAI_API_KEY")
	setInt(&settings.TimeoutSec, "OSSDEV_TIMEOUT_SEC")

	setInt(&settings.MaxTurns, "OSSDEV_MAX_TURNS")
	setInt(&settings.ContextBudget, "OSSDEV_CONTEXT_BUDGET")
	setInt(&settings.RetryAttempts, "OSSDEV_RETRY_ATTEMPTS")
	setInt(&settings.WallClockSec, "OSSDEV_WALL_CLOCK_SEC")
	setInt(&settings.LockTTLSec, "OSSDEV_LOCK_TTL_SEC")

	setStr(&settings.BranchPattern, "OSSDEV_BRANCH_PATTERN")
	setStr(&settings.GitHubToken, "OSSDEV_GITHUB_TOKEN", "GITHUB_TOKEN")
	setStr(&settings.MemoryBackend, "OSSDEV_MEMORY_BACKEND")
	setStr(&settings.ArchiveBucket, "OSSDEV_ARCHIVE_BUCKET")
	setStr(&settings.ArchivePrefix, "OSSDEV_ARCHIVE_PREFIX")
	setStr(&settings.StderrLevel, "OSSDEV_STDERR_LEVEL")

	return overridden
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings) {
	strDef := func(dst **string, def string) {
		if *dst == nil {
			*dst = &def
		}
	}
	intDef := func(dst **int, def int) {
		if *dst == nil {
			*dst = &def
		}
	}

	strDef(&settings.Home, ".ossdev")
	strDef(&settings.Oracle, "openai")
	strDef(&settings.Model, "gpt-4o")
	strDef(&settings.APIKey, "")
	intDef(&settings.TimeoutSec, 120)

	intDef(&settings.MaxTurns, 50)
	intDef(&settings.ContextBudget, 32_000)
	intDef(&settings.RetryAttempts, 3)
	intDef(&settings.WallClockSec, 0) // no wall-clock ceiling
	intDef(&settings.LockTTLSec, 600)

	strDef(&settings.BranchPattern, "fix/issue-{number}")
	strDef(&settings.GitHubToken, "")
	strDef(&settings.MemoryBackend, "file")
	strDef(&settings.ArchiveBucket, "")
	strDef(&settings.ArchivePrefix, "snapshots/")
	strDef(&settings.StderrLevel, "info")
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(settings *RawSettings, configSource string) *config.AppConfig {
	return config.NewAppConfig(
		*settings.Home,
		*settings.Oracle,
		*settings.Model,
		*settings.APIKey,
		*settings.TimeoutSec,
		*settings.MaxTurns,
		*settings.ContextBudget,
		*settings.RetryAttempts,
		*settings.WallClockSec,
		*settings.LockTTLSec,
		*settings.BranchPattern,
		*settings.GitHubToken,
		*settings.MemoryBackend,
		*settings.ArchiveBucket,
		*settings.ArchivePrefix,
		*settings.StderrLevel,
		configSource,
	)
}

// CreateDefaultSettings renders a default setting.yml
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)

	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	_ = enc.Encode(settings)
	_ = enc.Close()
	return []byte(b.String())
}
