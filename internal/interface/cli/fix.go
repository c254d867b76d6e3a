package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/git"
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
	"github.com/Hell1213/Oss-Dev/internal/adapter/tools"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/agent"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/lock"
	"github.com/Hell1213/Oss-Dev/internal/infra/analysis"
)

func newFixCmd() *cobra.Command {
	var (
		repoDir      string
		autoApprove  bool
		maxTurns     int
		wallClockSec int
	)

	cmd := &cobra.Command{
		Use:   "fix <owner/repo#N | issue URL>",
		Short: "Work an issue end to end and open a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := github.ParseIssueRef(args[0])
			if err != nil {
				return err
			}
			return runUnit(ref.String(), &ref, repoDir, autoApprove, maxTurns, wallClockSec, false)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo-dir", ".", "Path to the working clone")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Answer yes to every operator confirmation")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "Override the configured turn budget")
	cmd.Flags().IntVar(&wallClockSec, "wall-clock", 0, "Override the configured wall-clock limit in seconds")
	return cmd
}

func newResumeCmd() *cobra.Command {
	var (
		repoDir      string
		autoApprove  bool
		maxTurns     int
		wallClockSec int
	)

	cmd := &cobra.Command{
		Use:   "resume <unit-id>",
		Short: "Resume an interrupted unit of work from its last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID := args[0]
			var ref *github.IssueRef
			if parsed, err := github.ParseIssueRef(unitID); err == nil {
				ref = &parsed
			}
			return runUnit(unitID, ref, repoDir, autoApprove, maxTurns, wallClockSec, true)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo-dir", ".", "Path to the working clone")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Answer yes to every operator confirmation")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "Override the configured turn budget")
	cmd.Flags().IntVar(&wallClockSec, "wall-clock", 0, "Override the configured wall-clock limit in seconds")
	return cmd
}

// runUnit drives one unit of work through the agent loop, either from
// scratch or from a persisted snapshot.
func runUnit(unitID string, ref *github.IssueRef, repoDir string, autoApprove bool, maxTurns, wallClockSec int, resume bool) error {
	cfg := globalConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	lockID, err := lock.NewLockID(unitID)
	if err != nil {
		return err
	}
	if _, err := c.Locks.AcquireRunLock(ctx, lockID, cfg.LockTTL()); err != nil {
		return fmt.Errorf("unit %s: %w", unitID, err)
	}
	defer func() {
		if err := c.Locks.ReleaseRunLock(context.Background(), lockID); err != nil {
			c.Logger.Warn("release run lock %s: %v", unitID, err)
		}
	}()

	oracleGW, err := c.BuildOracle()
	if err != nil {
		return err
	}

	orch := orchestrator.NewOrchestrator(c.Memory, c.Logger, cfg.ContextBudget())

	instr, manager, err := startOrResume(ctx, orch, unitID, resume)
	if err != nil {
		return err
	}
	c.Logger.Info("unit %s entering phase %s", unitID, instr.Phase)

	if !resume && ref != nil {
		manager.Append(conversation.NewUserMessage(fmt.Sprintf(
			"Target issue: %s. Suggested branch name: %s. Repository clone: %s.",
			ref, branchNameFor(cfg.BranchPattern(), *ref), repoDir)))
	}

	var confirmer tools.Confirmer = tools.PromptConfirmer{}
	if autoApprove {
		confirmer = tools.AutoConfirmer{Answer: true}
	}

	registry, err := tools.BuildRegistry(tools.Deps{
		UnitID:       unitID,
		Orchestrator: orch,
		GitRunner:    git.NewRunner(repoDir, c.Logger),
		GitHub:       c.GitHub,
		Analyzer:     analysis.NewAnalyzer(c.Fs, c.Paths.AnalysisCache()),
		StartHere:    analysis.NewStartHere(c.Fs, repoDir),
		Notes:        c.Notes,
		Confirmer:    confirmer,
		RepoDir:      repoDir,
	})
	if err != nil {
		return err
	}

	turns := cfg.MaxTurns()
	if maxTurns > 0 {
		turns = maxTurns
	}
	wallClock := cfg.WallClock()
	if wallClockSec > 0 {
		wallClock = time.Duration(wallClockSec) * time.Second
	}

	loop := agent.NewLoop(oracleGW, registry, orch, c.Journal, c.Logger, turns, wallClock)
	result, runErr := loop.Run(ctx, unitID, manager)

	if result != nil {
		printRunResult(result)
		if result.Terminal != nil && c.Archive != nil {
			archiveUnit(c, unitID)
		}
	}
	return runErr
}

func startOrResume(ctx context.Context, orch *orchestrator.Orchestrator, unitID string, resume bool) (*orchestrator.InstructionPayload, *service.ContextManager, error) {
	if resume {
		return orch.Resume(ctx, unitID)
	}
	return orch.Start(ctx, unitID)
}

// branchNameFor expands the configured branch pattern for an issue
func branchNameFor(pattern string, ref github.IssueRef) string {
	r := strings.NewReplacer(
		"{number}", strconv.Itoa(ref.Number),
		"{owner}", ref.Owner,
		"{repo}", ref.Repo,
	)
	return r.Replace(pattern)
}

func printRunResult(r *agent.RunResult) {
	fmt.Printf("Unit    : %s\n", r.UnitID)
	fmt.Printf("Stopped : %s after %d turn(s)\n", r.StopReason, r.Turns)
	fmt.Printf("Phase   : %s\n", r.FinalPhase)
	if r.Terminal != nil {
		fmt.Println(r.Terminal.Summary())
	} else if r.LastSnapshotID != "" {
		fmt.Printf("Snapshot: %s (resume with `ossdev resume %s`)\n", r.LastSnapshotID, r.UnitID)
	}
}

// archiveUnit uploads the final snapshot of a finished unit
func archiveUnit(c *Container, unitID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := c.Memory.Load(ctx, unitID)
	if err != nil {
		c.Logger.Warn("archive %s: load snapshot: %v", unitID, err)
		return
	}
	info, err := c.Archive.ArchiveSnapshot(ctx, snap)
	if err != nil {
		c.Logger.Warn("archive %s: upload: %v", unitID, err)
		return
	}
	c.Logger.Info("archived %s to %s (%d bytes)", unitID, info.StoragePath, info.Size)
}
