// Package planner implements deterministic execution-plan synthesis: given
// a structural diff, the dependency graph and incremental watermark state,
// it decides which models must run, how, in what order and at what
// estimated cost.
//
// Determinism is the core discipline: every traversal is sorted, every
// identifier is content-derived, and every decision carries a reason
// string. Two invocations over identical inputs produce byte-identical
// plans.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/tidemark-data/tidemark/internal/dag"
	"github.com/tidemark-data/tidemark/internal/sqlref"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// ErrMissingAsOfDate is returned when Generate is called without an as-of
// date. The planner never reads wall-clock time; the caller must supply the
// date explicitly.
var ErrMissingAsOfDate = errors.New("planner: as-of date is required")

// CosmeticClassifier decides whether an old/new SQL pair differs only
// cosmetically. Implementations report an explicit tagged outcome;
// CosmeticUnknown keeps the model in the change set.
type CosmeticClassifier interface {
	Classify(oldSQL, newSQL string) sqlref.CosmeticResult
}

// ClassifierFunc adapts a function to the CosmeticClassifier interface.
type ClassifierFunc func(oldSQL, newSQL string) sqlref.CosmeticResult

// Classify implements CosmeticClassifier.
func (f ClassifierFunc) Classify(oldSQL, newSQL string) sqlref.CosmeticResult {
	return f(oldSQL, newSQL)
}

// Inputs is the full snapshot the planner works from. All maps are treated
// as read-only; Generate never mutates them.
type Inputs struct {
	// Models is the target-snapshot model set, keyed by model name.
	Models map[string]*core.ModelDefinition
	// Diff classifies models between the base and target snapshots.
	Diff *core.DiffResult
	// Graph is the dependency DAG over the union of both snapshots.
	Graph *dag.Graph
	// Watermarks maps incremental models to their materialized ranges.
	Watermarks map[string]core.Watermark
	// RunStats maps models to historical runtime statistics.
	RunStats map[string]core.RunStats
	// Config holds planner tuning knobs.
	Config Config
	// Base and Target are opaque snapshot identifiers (e.g. commit refs).
	Base   string
	Target string
	// AsOfDate is the mandatory planning date.
	AsOfDate core.Date
	// BaseSQL optionally maps modified models to their prior clean SQL,
	// enabling the cosmetic-change filter.
	BaseSQL map[string]string
	// ContractResults optionally maps models to detected contract
	// violations to be attached to their steps.
	ContractResults map[string][]core.ContractViolation
	// Cosmetic overrides the default cosmetic-change classifier.
	Cosmetic CosmeticClassifier
	// Logger receives planning diagnostics. Discarded when nil.
	Logger *slog.Logger
}

// Generate synthesizes a deterministic execution plan from the inputs.
// It fails only on caller contract violations (missing as-of date); graph
// degradations inside the affected set degrade to a sequential plan rather
// than refusing to plan.
func Generate(in Inputs) (*core.Plan, error) {
	if in.AsOfDate.IsZero() {
		return nil, ErrMissingAsOfDate
	}

	logger := in.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := in.Config.withDefaults()
	graph := in.Graph
	if graph == nil {
		graph = dag.New()
	}
	diffResult := in.Diff
	if diffResult == nil {
		diffResult = &core.DiffResult{}
	}

	// 1. Direct change set: added plus modified.
	direct := make(map[string]bool)
	for _, name := range diffResult.AddedModels {
		direct[name] = true
	}
	for _, name := range diffResult.ModifiedModels {
		direct[name] = true
	}

	// 2. Cosmetic filtering (config-gated cost heuristic).
	cosmeticSkipped := filterCosmetic(direct, diffResult, in, cfg, logger)

	// 3. Downstream closure, intersected with the target model set.
	// Removed models cannot appear as steps.
	affectedSet := make(map[string]bool)
	directSorted := sortedKeys(direct)
	for _, name := range directSorted {
		if _, ok := in.Models[name]; ok {
			affectedSet[name] = true
		}
	}
	for _, name := range graph.Descendants(directSorted) {
		if _, ok := in.Models[name]; ok {
			affectedSet[name] = true
		}
	}

	// 4. Deterministic ordering for everything that follows.
	affected := sortedKeys(affectedSet)

	// 5. Parallel-group assignment over the induced subgraph.
	groups := assignGroups(graph, affected, logger)

	// Steps.
	steps := make([]core.PlanStep, 0, len(affected))
	stepIDs := make([]string, 0, len(affected))
	summary := core.PlanSummary{
		ModelsChanged:          affected,
		CosmeticChangesSkipped: cosmeticSkipped,
	}

	for _, name := range affected {
		model := in.Models[name]

		runType, inputRange := decideRun(model, diffResult.IsAdded(name), in, cfg, graph, affectedSet)
		seconds := estimateSeconds(name, in.RunStats, cfg)
		cost := round6(seconds * cfg.CostPerComputeSecondUSD)

		violations := in.ContractResults[name]
		if violations == nil {
			violations = []core.ContractViolation{}
		}
		summary.ContractViolationsTotal += len(violations)
		for _, v := range violations {
			if v.Severity == core.SeverityBreaking {
				summary.BreakingViolations++
			}
		}

		var detail *core.ASTDiffDetail
		if direct[name] {
			detail = diffResult.ASTDiffs[name]
		}

		step := core.PlanStep{
			StepID:                  StepID(name, in.Base, in.Target),
			Model:                   name,
			RunType:                 runType,
			InputRange:              inputRange,
			DependsOn:               dependsOn(graph, name, affectedSet, in.Base, in.Target),
			ParallelGroup:           groups[name],
			Reason:                  reasonFor(name, direct, diffResult, graph),
			EstimatedComputeSeconds: seconds,
			EstimatedCostUSD:        cost,
			ContractViolations:      violations,
			DiffDetail:              detail,
		}
		steps = append(steps, step)
		stepIDs = append(stepIDs, step.StepID)
		summary.TotalEstimatedCostUSD += cost
	}

	summary.TotalSteps = len(steps)
	summary.TotalEstimatedCostUSD = round6(summary.TotalEstimatedCostUSD)

	plan := &core.Plan{
		PlanID:   PlanID(in.Base, in.Target, stepIDs),
		Base:     in.Base,
		Target:   in.Target,
		AsOfDate: in.AsOfDate,
		Summary:  summary,
		Steps:    steps,
	}

	logger.Info("plan generated",
		"plan_id", plan.PlanID,
		"steps", summary.TotalSteps,
		"estimated_cost_usd", summary.TotalEstimatedCostUSD,
		"cosmetic_skipped", len(cosmeticSkipped))

	return plan, nil
}

// filterCosmetic removes cosmetic-only edits from the direct change set and
// returns the sorted skip list. A model skipped here can still re-enter the
// plan through the downstream closure when something it depends on changed;
// the filter only ever removes the direct trigger.
func filterCosmetic(direct map[string]bool, d *core.DiffResult, in Inputs, cfg Config, logger *slog.Logger) []string {
	skipped := []string{}
	if !cfg.SkipCosmeticChanges || len(in.BaseSQL) == 0 {
		return skipped
	}

	classifier := in.Cosmetic
	if classifier == nil {
		classifier = ClassifierFunc(sqlref.ClassifyChange)
	}

	modified := append([]string(nil), d.ModifiedModels...)
	sort.Strings(modified)
	for _, name := range modified {
		oldSQL, ok := in.BaseSQL[name]
		if !ok {
			continue
		}
		model, ok := in.Models[name]
		if !ok {
			continue
		}
		switch classifier.Classify(oldSQL, model.CleanSQL) {
		case sqlref.CosmeticOnly:
			delete(direct, name)
			skipped = append(skipped, name)
			logger.Debug("skipping cosmetic-only change", "model", name)
		case sqlref.CosmeticUnknown:
			// Classifier could not analyze the texts; staying in the
			// change set is the conservative direction (more work, never
			// silently less).
			logger.Debug("cosmetic classification inconclusive, keeping model", "model", name)
		}
	}
	sort.Strings(skipped)
	return skipped
}

// assignGroups computes each affected model's parallel group: its
// longest-path layer within the induced subgraph. A cycle confined to the
// affected set degrades to strictly sequential groups rather than failing
// the plan.
func assignGroups(graph *dag.Graph, affected []string, logger *slog.Logger) map[string]int {
	groups := make(map[string]int, len(affected))
	for _, name := range affected {
		groups[name] = 0
	}

	sub := graph.Subgraph(affected)
	levels, err := sub.ExecutionLevels()
	if err != nil {
		logger.Warn("affected subgraph is cyclic, falling back to sequential groups", "error", err)
		for i, name := range affected {
			groups[name] = i
		}
		return groups
	}

	for level, names := range levels {
		for _, name := range names {
			groups[name] = level
		}
	}
	return groups
}

// decideRun applies the run-type state machine: a pure function of model
// kind and diff membership, no persisted state.
func decideRun(model *core.ModelDefinition, isAdded bool, in Inputs, cfg Config, graph *dag.Graph, affected map[string]bool) (core.RunType, *core.DateRange) {
	// Newly added models always rebuild from scratch, regardless of kind.
	if isAdded {
		return core.RunTypeFullRefresh, nil
	}

	if model.Kind.IsIncremental() {
		r := incrementalRange(model.Name, in, cfg, graph, affected)
		return core.RunTypeIncremental, &r
	}

	// Full-refresh and merge kinds rebuild the whole table. Unknown future
	// kinds take the same path; a model is never silently dropped.
	return core.RunTypeFullRefresh, nil
}

// incrementalRange computes the inclusive date range for an incremental
// step. The start widens backward to the earliest watermark start among
// upstream models inside the affected set, so a downstream model reprocesses
// at least as far back as any upstream reprocessing.
func incrementalRange(name string, in Inputs, cfg Config, graph *dag.Graph, affected map[string]bool) core.DateRange {
	end := in.AsOfDate

	var start core.Date
	if wm, ok := in.Watermarks[name]; ok && !wm.RangeEnd.IsZero() {
		start = wm.RangeEnd
	} else {
		start = in.AsOfDate.AddDays(-cfg.DefaultLookbackDays)
	}

	for _, upstream := range graph.Ancestors([]string{name}) {
		if upstream == name || !affected[upstream] {
			continue
		}
		if wm, ok := in.Watermarks[upstream]; ok && !wm.RangeStart.IsZero() && wm.RangeStart.Before(start) {
			start = wm.RangeStart
		}
	}

	// Degenerate spans clamp to a zero/one-day range instead of producing
	// an invalid start > end.
	if start.After(end) {
		start = end
	}
	return core.DateRange{Start: start, End: end}
}

// dependsOn returns the step IDs of the model's in-affected-set direct
// predecessors, ordered by predecessor model name.
func dependsOn(graph *dag.Graph, name string, affected map[string]bool, base, target string) []string {
	ids := []string{}
	for _, parent := range graph.Parents(name) { // already sorted
		if affected[parent] {
			ids = append(ids, StepID(parent, base, target))
		}
	}
	return ids
}

// reasonFor produces the human-readable justification for a step.
func reasonFor(name string, direct map[string]bool, d *core.DiffResult, graph *dag.Graph) string {
	if d.IsAdded(name) {
		return "new model added"
	}
	if direct[name] {
		return "SQL logic changed"
	}

	// Indirect inclusion: prefer a directly-changed direct predecessor,
	// then the alphabetically smallest directly-changed ancestor.
	for _, parent := range graph.Parents(name) {
		if direct[parent] {
			return fmt.Sprintf("upstream model %s changed", parent)
		}
	}
	for _, ancestor := range graph.Ancestors([]string{name}) {
		if ancestor != name && direct[ancestor] {
			return fmt.Sprintf("upstream model %s changed", ancestor)
		}
	}
	return "included by planner policy"
}

// estimateSeconds returns the historical average runtime, or the configured
// default when no history exists.
func estimateSeconds(name string, stats map[string]core.RunStats, cfg Config) float64 {
	if rs, ok := stats[name]; ok && rs.AvgRuntimeSeconds > 0 {
		return rs.AvgRuntimeSeconds
	}
	return cfg.DefaultRuntimeSeconds
}

// withDefaults fills zero-valued knobs with the documented defaults.
func (c Config) withDefaults() Config {
	if c.DefaultLookbackDays <= 0 {
		c.DefaultLookbackDays = DefaultLookbackDays
	}
	if c.DefaultRuntimeSeconds <= 0 {
		c.DefaultRuntimeSeconds = DefaultRuntimeSeconds
	}
	if c.CostPerComputeSecondUSD <= 0 {
		c.CostPerComputeSecondUSD = DefaultCostPerComputeSecond
	}
	return c
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
