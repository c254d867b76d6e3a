package workflow

// Phase represents one stage of the fixed contribution pipeline.
// The order is linear and total: every non-terminal phase has exactly
// one successor, no branching, no cycles.
type Phase string

const (
	PhaseRepoUnderstanding Phase = "repo_understanding"
	PhaseIssueIntake       Phase = "issue_intake"
	PhasePlanning          Phase = "planning"
	PhaseImplementation    Phase = "implementation"
	PhaseVerification      Phase = "verification"
	PhaseValidation        Phase = "validation"
	PhaseCommitAndPR       Phase = "commit_and_pr"
	PhaseDone              Phase = "done"
	PhaseAborted           Phase = "aborted"
)

// phaseOrder is the fixed pipeline sequence excluding Aborted, which is
// reachable from any non-terminal phase via an explicit abort.
var phaseOrder = []Phase{
	PhaseRepoUnderstanding,
	PhaseIssueIntake,
	PhasePlanning,
	PhaseImplementation,
	PhaseVerification,
	PhaseValidation,
	PhaseCommitAndPR,
	PhaseDone,
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a known pipeline phase
func (p Phase) IsValid() bool {
	if p == PhaseAborted {
		return true
	}
	for _, q := range phaseOrder {
		if p == q {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Done and Aborted
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// Next returns the successor phase in the fixed order. The second
// return value is false for terminal or unknown phases.
func (p Phase) Next() (Phase, bool) {
	for i, q := range phaseOrder {
		if p == q && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// Ordinal returns the position of the phase in the pipeline, or -1 for
// Aborted and unknown phases. Used for progress display.
func (p Phase) Ordinal() int {
	for i, q := range phaseOrder {
		if p == q {
			return i
		}
	}
	return -1
}

// Phases returns the pipeline order excluding Aborted
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}
