package tools

import (
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/git"
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
	"github.com/Hell1213/Oss-Dev/internal/infra/analysis"
	inframem "github.com/Hell1213/Oss-Dev/internal/infra/repository/memory"
)

// Deps collects the collaborators the tool set is built from
type Deps struct {
	UnitID       string
	Orchestrator *orchestrator.Orchestrator
	GitRunner    *git.Runner
	GitHub       github.Gateway
	Analyzer     *analysis.Analyzer
	StartHere    *analysis.StartHere
	Notes        *inframem.NotesStore
	Confirmer    Confirmer
	RepoDir      string
}

// BuildRegistry assembles the full tool registry for one unit of work.
// Registration order is the order the oracle sees the schemas in.
func BuildRegistry(d Deps) (*service.ToolRegistry, error) {
	reg := service.NewToolRegistry()

	regs := []service.Registration{
		NewWorkflowTool(d.Orchestrator, d.UnitID).Registration(),
		NewMemoryTool(d.Notes, d.UnitID).Registration(),
	}
	regs = append(regs, NewRepositoryTools(d.Analyzer, d.StartHere, d.RepoDir).Registrations()...)
	regs = append(regs, NewGitHubTools(d.GitHub).Registrations()...)
	regs = append(regs, NewGitTools(d.GitRunner).Registrations()...)
	regs = append(regs, NewConfirmTool(d.Confirmer).Registration())

	for _, r := range regs {
		if err := reg.Register(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
