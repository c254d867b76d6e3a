package tools

import (
	"context"
	"fmt"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
	"github.com/Hell1213/Oss-Dev/internal/infra/analysis"
)

// RepositoryTools builds the registry entries for repository
// understanding: the tree scan and the START_HERE navigation document.
type RepositoryTools struct {
	analyzer  *analysis.Analyzer
	startHere *analysis.StartHere
	rootDir   string
}

// NewRepositoryTools wires analysis tools for the repository at rootDir
func NewRepositoryTools(analyzer *analysis.Analyzer, startHere *analysis.StartHere, rootDir string) *RepositoryTools {
	return &RepositoryTools{analyzer: analyzer, startHere: startHere, rootDir: rootDir}
}

var understandingPhases = []workflow.Phase{
	workflow.PhaseRepoUnderstanding,
	workflow.PhaseVerification,
}

// Registrations returns all repository tool registry entries
func (r *RepositoryTools) Registrations() []service.Registration {
	return []service.Registration{
		{
			Schema: output.ToolSchema{
				Name: "analyze_repository",
				Description: "Scan the repository: languages, layout, entry points, build files, " +
					"CI configuration, and the test command. Cached; set force=true to rescan.",
				Parameters: objectSchema(nil, map[string]interface{}{
					"force": prop("boolean", "Rescan even when a cached analysis exists"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				result, err := r.analyzer.Analyze(ctx, r.rootDir, boolArg(args, "force"))
				if err != nil {
					return "", err
				}
				return result.Summary(), nil
			}),
			Phases: understandingPhases,
		},
		{
			Schema: output.ToolSchema{
				Name:        "check_start_here",
				Description: "Check whether START_HERE.md exists and return its content if so.",
				Parameters:  objectSchema(nil, map[string]interface{}{}),
			},
			Handler: service.ToolHandlerFunc(func(_ context.Context, _ map[string]interface{}) (string, error) {
				exists, err := r.startHere.Exists()
				if err != nil {
					return "", err
				}
				if !exists {
					return "START_HERE.md does not exist; create it with create_start_here", nil
				}
				return r.startHere.Read()
			}),
			Phases: []workflow.Phase{workflow.PhaseRepoUnderstanding},
		},
		{
			Schema: output.ToolSchema{
				Name:        "create_start_here",
				Description: "Create START_HERE.md from the repository analysis. Fails if it already exists.",
				Parameters:  objectSchema(nil, map[string]interface{}{}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, _ map[string]interface{}) (string, error) {
				result, err := r.analyzer.Analyze(ctx, r.rootDir, false)
				if err != nil {
					return "", err
				}
				if err := r.startHere.Create(result); err != nil {
					return "", err
				}
				return fmt.Sprintf("%s created", analysis.StartHereName), nil
			}),
			Phases: []workflow.Phase{workflow.PhaseRepoUnderstanding},
		},
		{
			Schema: output.ToolSchema{
				Name:        "update_start_here",
				Description: "Append a dated note to START_HERE.md.",
				Parameters: objectSchema([]string{"note"}, map[string]interface{}{
					"note": prop("string", "The note to append"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(_ context.Context, args map[string]interface{}) (string, error) {
				note, err := stringArg(args, "note")
				if err != nil {
					return "", err
				}
				if err := r.startHere.Update(note); err != nil {
					return "", err
				}
				return fmt.Sprintf("%s updated", analysis.StartHereName), nil
			}),
			Phases: []workflow.Phase{workflow.PhaseRepoUnderstanding},
		},
	}
}
