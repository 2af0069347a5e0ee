package core

// RunType defines how a plan step executes its model.
type RunType string

// Run type constants.
const (
	RunTypeFullRefresh RunType = "FULL_REFRESH"
	RunTypeIncremental RunType = "INCREMENTAL"
)

// PlanStep is one unit of work inside a Plan.
//
// StepID is content-derived (a hash of model, base and target), so step
// identity is stable across processes. DependsOn lists step IDs within the
// same plan, not model names, sorted by the predecessor's model name.
type PlanStep struct {
	StepID                  string              `json:"step_id"`
	Model                   string              `json:"model"`
	RunType                 RunType             `json:"run_type"`
	InputRange              *DateRange          `json:"input_range,omitempty"`
	DependsOn               []string            `json:"depends_on"`
	ParallelGroup           int                 `json:"parallel_group"`
	Reason                  string              `json:"reason"`
	EstimatedComputeSeconds float64             `json:"estimated_compute_seconds"`
	EstimatedCostUSD        float64             `json:"estimated_cost_usd"`
	ContractViolations      []ContractViolation `json:"contract_violations"`
	DiffDetail              *ASTDiffDetail      `json:"diff_detail,omitempty"`
}

// PlanSummary aggregates a plan for display and audit tooling.
type PlanSummary struct {
	TotalSteps              int      `json:"total_steps"`
	TotalEstimatedCostUSD   float64  `json:"total_estimated_cost_usd"`
	ModelsChanged           []string `json:"models_changed"`
	CosmeticChangesSkipped  []string `json:"cosmetic_changes_skipped"`
	ContractViolationsTotal int      `json:"contract_violations_total"`
	BreakingViolations      int      `json:"breaking_violations"`
}

// Plan is a deterministic execution plan for one change event.
//
// Invariant: identical inputs (including the as-of date) produce a
// byte-identical serialized Plan. Every collection is sorted and every
// identifier is content-derived; there is no randomness anywhere in plan
// construction.
type Plan struct {
	PlanID   string      `json:"plan_id"`
	Base     string      `json:"base"`
	Target   string      `json:"target"`
	AsOfDate Date        `json:"as_of_date"`
	Summary  PlanSummary `json:"summary"`
	Steps    []PlanStep  `json:"steps"`
}

// Step returns the step for the given model, if present.
func (p *Plan) Step(model string) (*PlanStep, bool) {
	for i := range p.Steps {
		if p.Steps[i].Model == model {
			return &p.Steps[i], true
		}
	}
	return nil, false
}
