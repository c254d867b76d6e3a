package app

import "path/filepath"

// DefaultHome is the base directory for Oss-Dev state inside a repository
const DefaultHome = ".ossdev"

// Paths resolves well-known file locations under the Oss-Dev home
type Paths struct {
	Home string
}

// NewPaths creates path resolution rooted at home (empty means DefaultHome)
func NewPaths(home string) Paths {
	if home == "" {
		home = DefaultHome
	}
	return Paths{Home: home}
}

// SettingFile is the YAML configuration file
func (p Paths) SettingFile() string {
	return filepath.Join(p.Home, "setting.yml")
}

// BranchesDir holds one snapshot file per unit of work
func (p Paths) BranchesDir() string {
	return filepath.Join(p.Home, "branches")
}

// LocksDir holds run lock files
func (p Paths) LocksDir() string {
	return filepath.Join(p.Home, "locks")
}

// JournalFile is the append-only turn journal
func (p Paths) JournalFile() string {
	return filepath.Join(p.Home, "journal.ndjson")
}

// AnalysisCache is the cached repository analysis
func (p Paths) AnalysisCache() string {
	return filepath.Join(p.Home, "analysis.json")
}

// SnapshotDB is the SQLite snapshot store used when the sqlite memory
// backend is selected
func (p Paths) SnapshotDB() string {
	return filepath.Join(p.Home, "snapshots.db")
}
