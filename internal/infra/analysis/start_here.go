package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Hell1213/Oss-Dev/internal/infra/persistence/file"
)

// StartHereName is the navigation document maintained at the
// repository root for future contributors (human or agent).
const StartHereName = "START_HERE.md"

// StartHere manages the navigation document for one repository
type StartHere struct {
	fs      afero.Fs
	rootDir string
}

// NewStartHere creates a manager for the repository at rootDir
func NewStartHere(fs afero.Fs, rootDir string) *StartHere {
	return &StartHere{fs: fs, rootDir: rootDir}
}

func (s *StartHere) path() string {
	return filepath.Join(s.rootDir, StartHereName)
}

// Exists reports whether the document is already present
func (s *StartHere) Exists() (bool, error) {
	return afero.Exists(s.fs, s.path())
}

// Read returns the document content
func (s *StartHere) Read() (string, error) {
	data, err := afero.ReadFile(s.fs, s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s does not exist", StartHereName)
		}
		return "", err
	}
	return string(data), nil
}

// Create writes a fresh document rendered from the analysis. Fails if
// one already exists; existing navigation docs are updated, not
// clobbered.
func (s *StartHere) Create(a *Analysis) error {
	exists, err := s.Exists()
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s already exists; update it instead", StartHereName)
	}
	return file.WriteFileAtomic(s.fs, s.path(), []byte(render(a)))
}

// Update appends a dated note to the existing document
func (s *StartHere) Update(note string) error {
	content, err := s.Read()
	if err != nil {
		return err
	}
	if strings.TrimSpace(note) == "" {
		return fmt.Errorf("update note cannot be empty")
	}
	updated := strings.TrimRight(content, "\n") + fmt.Sprintf(
		"\n\n## Update %s\n\n%s\n", time.Now().UTC().Format("2006-01-02"), strings.TrimSpace(note))
	return file.WriteFileAtomic(s.fs, s.path(), []byte(updated))
}

func render(a *Analysis) string {
	var b strings.Builder
	b.WriteString("# START HERE\n\n")
	b.WriteString("Orientation notes for this repository.\n\n")

	if len(a.TopDirs) > 0 {
		b.WriteString("## Layout\n\n")
		for _, d := range a.TopDirs {
			fmt.Fprintf(&b, "- `%s/`\n", d)
		}
		b.WriteString("\n")
	}
	if len(a.EntryPoints) > 0 {
		b.WriteString("## Entry points\n\n")
		for _, e := range a.EntryPoints {
			fmt.Fprintf(&b, "- `%s`\n", e)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Testing\n\n")
	if a.TestCommand != "" {
		fmt.Fprintf(&b, "Run the suite with `%s`. ", a.TestCommand)
	}
	fmt.Fprintf(&b, "The tree contains %d test files.\n\n", a.TestFiles)

	if len(a.CIConfigs) > 0 {
		b.WriteString("## CI\n\n")
		for _, c := range a.CIConfigs {
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "_Generated %s from a scan of %d files._\n", a.AnalyzedAt.Format("2006-01-02"), a.FileCount)
	return b.String()
}
