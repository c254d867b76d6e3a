package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
)

// Analysis is the distilled picture of a repository the agent builds
// during the understanding phase. It is cached so re-runs and resumes
// do not rescan the tree.
type Analysis struct {
	RootDir     string            `json:"root_dir"`
	Languages   map[string]int    `json:"languages"` // extension -> file count
	EntryPoints []string          `json:"entry_points"`
	BuildFiles  []string          `json:"build_files"`
	CIConfigs   []string          `json:"ci_configs"`
	TestFiles   int               `json:"test_files"`
	TestCommand string            `json:"test_command"`
	TopDirs     []string          `json:"top_dirs"`
	FileCount   int               `json:"file_count"`
	Notes       map[string]string `json:"notes,omitempty"`
	AnalyzedAt  time.Time         `json:"analyzed_at"`
}

// Summary renders a compact text form for the oracle
func (a *Analysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository analysis (%d files)\n", a.FileCount)

	if len(a.Languages) > 0 {
		type langCount struct {
			ext string
			n   int
		}
		var langs []langCount
		for ext, n := range a.Languages {
			langs = append(langs, langCount{ext, n})
		}
		sort.Slice(langs, func(i, j int) bool { return langs[i].n > langs[j].n })
		b.WriteString("Languages:")
		for i, l := range langs {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, " %s(%d)", l.ext, l.n)
		}
		b.WriteString("\n")
	}
	if len(a.TopDirs) > 0 {
		fmt.Fprintf(&b, "Top-level directories: %s\n", strings.Join(a.TopDirs, ", "))
	}
	if len(a.EntryPoints) > 0 {
		fmt.Fprintf(&b, "Entry points: %s\n", strings.Join(a.EntryPoints, ", "))
	}
	if len(a.BuildFiles) > 0 {
		fmt.Fprintf(&b, "Build files: %s\n", strings.Join(a.BuildFiles, ", "))
	}
	if len(a.CIConfigs) > 0 {
		fmt.Fprintf(&b, "CI configs: %s\n", strings.Join(a.CIConfigs, ", "))
	}
	fmt.Fprintf(&b, "Test files: %d\n", a.TestFiles)
	if a.TestCommand != "" {
		fmt.Fprintf(&b, "Suggested test command: %s\n", a.TestCommand)
	}
	return b.String()
}

// Analyzer scans a repository working tree
type Analyzer struct {
	fs        afero.Fs
	cachePath string
}

// NewAnalyzer creates an analyzer caching results at cachePath
func NewAnalyzer(fs afero.Fs, cachePath string) *Analyzer {
	return &Analyzer{fs: fs, cachePath: cachePath}
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"target":       true,
}

// buildFilePatterns map build manifests to the test command they imply
var buildFilePatterns = []struct {
	pattern string
	testCmd string
}{
	{"go.mod", "go test ./..."},
	{"package.json", "npm test"},
	{"pyproject.toml", "pytest"},
	{"setup.py", "pytest"},
	{"Cargo.toml", "cargo test"},
	{"pom.xml", "mvn test"},
	{"build.gradle", "gradle test"},
	{"Makefile", "make test"},
}

var entryPointPatterns = []string{
	"main.go",
	"cmd/*/main.go",
	"main.py",
	"src/main.py",
	"index.js",
	"src/index.js",
	"src/index.ts",
	"src/main.rs",
}

var ciPatterns = []string{
	".github/workflows/*.yml",
	".github/workflows/*.yaml",
	".gitlab-ci.yml",
	".circleci/config.yml",
	"Jenkinsfile",
}

// Analyze scans rootDir and caches the result. A valid cache is reused
// unless force is set.
func (a *Analyzer) Analyze(ctx context.Context, rootDir string, force bool) (*Analysis, error) {
	if !force {
		if cached, err := a.loadCache(); err == nil && cached.RootDir == rootDir {
			return cached, nil
		}
	}

	result := &Analysis{
		RootDir:    rootDir,
		Languages:  map[string]int{},
		AnalyzedAt: time.Now().UTC(),
	}

	err := afero.Walk(a.fs, rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if info.IsDir() {
			if skipDirs[info.Name()] || strings.HasPrefix(info.Name(), ".") && info.Name() != ".github" && info.Name() != ".circleci" {
				return filepath.SkipDir
			}
			if !strings.Contains(rel, string(filepath.Separator)) {
				result.TopDirs = append(result.TopDirs, rel)
			}
			return nil
		}

		result.FileCount++
		if ext := filepath.Ext(rel); ext != "" {
			result.Languages[ext]++
		}
		if isTestFile(rel) {
			result.TestFiles++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", rootDir, err)
	}
	sort.Strings(result.TopDirs)

	for _, bp := range buildFilePatterns {
		if ok, _ := afero.Exists(a.fs, filepath.Join(rootDir, bp.pattern)); ok {
			result.BuildFiles = append(result.BuildFiles, bp.pattern)
			if result.TestCommand == "" {
				result.TestCommand = bp.testCmd
			}
		}
	}
	result.EntryPoints = a.matchPatterns(rootDir, entryPointPatterns)
	result.CIConfigs = a.matchPatterns(rootDir, ciPatterns)

	if err := a.saveCache(result); err != nil {
		return nil, err
	}
	return result, nil
}

// matchPatterns resolves doublestar glob patterns relative to rootDir
func (a *Analyzer) matchPatterns(rootDir string, patterns []string) []string {
	var out []string
	rooted := afero.NewIOFS(afero.NewBasePathFs(a.fs, rootDir))
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(rooted, pattern)
		if err != nil {
			continue
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out
}

func isTestFile(rel string) bool {
	base := filepath.Base(rel)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") ||
		strings.HasSuffix(base, ".test.js") ||
		strings.HasSuffix(base, ".test.ts") ||
		strings.HasSuffix(base, ".spec.js") ||
		strings.HasSuffix(base, ".spec.ts")
}

func (a *Analyzer) loadCache() (*Analysis, error) {
	data, err := afero.ReadFile(a.fs, a.cachePath)
	if err != nil {
		return nil, err
	}
	var cached Analysis
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (a *Analyzer) saveCache(result *Analysis) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	if err := file.WriteFileAtomic(a.fs, a.cachePath, data); err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	return nil
}
