package impact

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// visit is one BFS work item.
type visit struct {
	model string
	depth int
}

// SimulateColumnChange previews the downstream consequences of the given
// column changes on sourceModel. An unknown source model yields an
// explained empty report, not an error; a traversal deeper than the
// configured limit yields a DepthExceededError.
func (a *Analyzer) SimulateColumnChange(sourceModel string, changes []ColumnChange) (*ImpactReport, error) {
	report := &ImpactReport{
		SourceModel:          sourceModel,
		Changes:              changes,
		DirectlyAffected:     []AffectedModel{},
		TransitivelyAffected: []AffectedModel{},
	}

	if _, ok := a.models[sourceModel]; !ok {
		report.Summary = fmt.Sprintf("model %q is not in the current model set; no impact computed", sourceModel)
		return report, nil
	}

	changedNames := changedColumnNames(changes)

	err := a.walkDownstream(sourceModel, func(name string, depth int) {
		model := a.models[name]
		affected := AffectedModel{
			ModelName:          name,
			ReferenceType:      referenceType(depth),
			ColumnsAffected:    []string{},
			ContractViolations: []core.ContractViolation{},
			Severity:           core.SeverityInfo,
		}

		if model != nil {
			affected.ColumnsAffected = a.referencedChangedColumns(model, changedNames)
			affected.ContractViolations = contractViolations(model, changes)
			affected.Severity = severityFor(affected, changes)
		}

		report.append(affected)
	})
	if err != nil {
		return nil, err
	}

	report.count()
	report.Summary = columnChangeSummary(sourceModel, changes, report)
	return report, nil
}

// SimulateModelRemoval previews the downstream consequences of deleting a
// model. Every downstream model is breaking; models whose remaining
// upstream set would be empty are additionally flagged orphaned.
func (a *Analyzer) SimulateModelRemoval(modelName string) (*ModelRemovalReport, error) {
	report := &ModelRemovalReport{
		Model:                modelName,
		DirectlyAffected:     []AffectedModel{},
		TransitivelyAffected: []AffectedModel{},
		OrphanedModels:       []string{},
	}

	if _, ok := a.models[modelName]; !ok {
		report.Summary = fmt.Sprintf("model %q is not in the current model set; no impact computed", modelName)
		return report, nil
	}

	err := a.walkDownstream(modelName, func(name string, depth int) {
		remaining := 0
		for _, up := range a.upstreams[name] {
			if up != modelName {
				remaining++
			}
		}
		if remaining == 0 {
			report.OrphanedModels = append(report.OrphanedModels, name)
		}

		affected := AffectedModel{
			ModelName:          name,
			ReferenceType:      referenceType(depth),
			ColumnsAffected:    []string{},
			ContractViolations: []core.ContractViolation{},
			Severity:           core.SeverityBreaking,
		}
		if depth == 1 {
			report.DirectlyAffected = append(report.DirectlyAffected, affected)
		} else {
			report.TransitivelyAffected = append(report.TransitivelyAffected, affected)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(report.OrphanedModels)
	total := len(report.DirectlyAffected) + len(report.TransitivelyAffected)
	report.Summary = fmt.Sprintf(
		"removing %s breaks %d downstream model(s); %d would be orphaned with no remaining upstream",
		modelName, total, len(report.OrphanedModels))
	return report, nil
}

// SimulateTypeChange is a convenience wrapper for a single TYPE_CHANGE.
func (a *Analyzer) SimulateTypeChange(sourceModel, columnName, oldType, newType string) (*ImpactReport, error) {
	return a.SimulateColumnChange(sourceModel, []ColumnChange{{
		Action:     ActionTypeChange,
		ColumnName: columnName,
		OldType:    oldType,
		NewType:    newType,
	}})
}

// walkDownstream runs a breadth-first traversal from source, starting at
// depth 1. Each model is visited exactly once; exceeding maxDepth fails
// loudly because it signals a cycle the caller must fix.
func (a *Analyzer) walkDownstream(source string, fn func(name string, depth int)) error {
	visited := map[string]bool{source: true}
	queue := make([]visit, 0, len(a.downstreams[source]))
	for _, d := range a.downstreams[source] {
		queue = append(queue, visit{model: d, depth: 1})
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if curr.depth > a.maxDepth {
			return &DepthExceededError{Model: source, MaxDepth: a.maxDepth}
		}
		if !visited[curr.model] {
			visited[curr.model] = true
			fn(curr.model, curr.depth)
		}

		// Edges are always followed, only processing is deduplicated: in a
		// well-formed DAG the walk drains naturally, while a residual
		// cycle keeps deepening until the depth guard trips.
		for _, next := range a.downstreams[curr.model] {
			queue = append(queue, visit{model: next, depth: curr.depth + 1})
		}
	}
	return nil
}

// referencedChangedColumns intersects the model's referenced columns with
// the changed column names. Extraction failure degrades to "no reference
// signal" — this is informational, never the authoritative contract check.
func (a *Analyzer) referencedChangedColumns(model *core.ModelDefinition, changed map[string]bool) []string {
	refs, err := a.extract(model.CleanSQL)
	if err != nil {
		a.logger.Debug("column extraction failed, treating as no references",
			"model", model.Name, "error", err)
		return []string{}
	}

	hits := []string{}
	for _, ref := range refs {
		if changed[strings.ToLower(ref)] {
			hits = append(hits, ref)
		}
	}
	sort.Strings(hits)
	return hits
}

// contractViolations checks the model's declared contract against each
// requested change. ADD is additive and never violates a contract.
func contractViolations(model *core.ModelDefinition, changes []ColumnChange) []core.ContractViolation {
	violations := []core.ContractViolation{}
	if model.ContractMode == core.ContractDisabled || model.ContractMode == "" {
		return violations
	}

	for _, change := range changes {
		col, ok := model.ContractColumn(change.ColumnName)
		if !ok {
			continue
		}
		switch change.Action {
		case ActionRemove:
			violations = append(violations, core.ContractViolation{
				Model:    model.Name,
				Column:   col.Name,
				Code:     core.ViolationColumnRemoved,
				Severity: core.SeverityBreaking,
				Message:  fmt.Sprintf("contract requires column %s which would be removed", col.Name),
			})
		case ActionRename:
			violations = append(violations, core.ContractViolation{
				Model:    model.Name,
				Column:   col.Name,
				Code:     core.ViolationColumnRenamed,
				Severity: core.SeverityBreaking,
				Message:  fmt.Sprintf("contract requires column %s which would be renamed to %s", col.Name, change.NewName),
			})
		case ActionTypeChange:
			if !IsCompatible(col.DataType, change.NewType) {
				violations = append(violations, core.ContractViolation{
					Model:    model.Name,
					Column:   col.Name,
					Code:     core.ViolationTypeChanged,
					Severity: core.SeverityBreaking,
					Message:  fmt.Sprintf("contract requires %s %s; %s is not a compatible type", col.Name, col.DataType, change.NewType),
				})
			}
		}
	}
	return violations
}

// severityFor grades one affected model: contract violations dominate, then
// a severity derived from the change actions for mere references, then
// INFO for downstream models with no visible reference.
func severityFor(affected AffectedModel, changes []ColumnChange) core.Severity {
	if len(affected.ContractViolations) > 0 {
		worst := core.SeverityInfo
		for _, v := range affected.ContractViolations {
			worst = core.WorseSeverity(worst, v.Severity)
		}
		return worst
	}

	if len(affected.ColumnsAffected) > 0 {
		worst := core.SeverityInfo
		for _, change := range changes {
			worst = core.WorseSeverity(worst, actionSeverity(change))
		}
		return worst
	}

	return core.SeverityInfo
}

// actionSeverity derives a reference-only severity from a change action.
func actionSeverity(change ColumnChange) core.Severity {
	switch change.Action {
	case ActionRemove, ActionRename:
		return core.SeverityBreaking
	case ActionTypeChange:
		if !IsCompatible(change.OldType, change.NewType) {
			return core.SeverityBreaking
		}
		return core.SeverityWarning
	default:
		return core.SeverityWarning
	}
}

// changedColumnNames collects the lowercased names a change set touches:
// the original names plus, for renames, the new names.
func changedColumnNames(changes []ColumnChange) map[string]bool {
	names := make(map[string]bool, len(changes))
	for _, change := range changes {
		if change.ColumnName != "" {
			names[strings.ToLower(change.ColumnName)] = true
		}
		if change.Action == ActionRename && change.NewName != "" {
			names[strings.ToLower(change.NewName)] = true
		}
	}
	return names
}

func referenceType(depth int) ReferenceType {
	if depth == 1 {
		return ReferenceDirect
	}
	return ReferenceTransitive
}

// append routes an affected model into the right bucket.
func (r *ImpactReport) append(m AffectedModel) {
	if m.ReferenceType == ReferenceDirect {
		r.DirectlyAffected = append(r.DirectlyAffected, m)
	} else {
		r.TransitivelyAffected = append(r.TransitivelyAffected, m)
	}
}

// count tallies breaking and warning models across both buckets.
func (r *ImpactReport) count() {
	for _, bucket := range [][]AffectedModel{r.DirectlyAffected, r.TransitivelyAffected} {
		for _, m := range bucket {
			switch m.Severity {
			case core.SeverityBreaking:
				r.BreakingCount++
			case core.SeverityWarning:
				r.WarningCount++
			}
		}
	}
}

// columnChangeSummary builds the natural-language report summary.
func columnChangeSummary(source string, changes []ColumnChange, r *ImpactReport) string {
	descs := make([]string, 0, len(changes))
	for _, change := range changes {
		switch change.Action {
		case ActionRename:
			descs = append(descs, fmt.Sprintf("rename %s to %s", change.ColumnName, change.NewName))
		case ActionTypeChange:
			descs = append(descs, fmt.Sprintf("change %s from %s to %s", change.ColumnName, change.OldType, change.NewType))
		case ActionRemove:
			descs = append(descs, fmt.Sprintf("remove %s", change.ColumnName))
		case ActionAdd:
			descs = append(descs, fmt.Sprintf("add %s", change.ColumnName))
		default:
			descs = append(descs, fmt.Sprintf("%s %s", strings.ToLower(string(change.Action)), change.ColumnName))
		}
	}

	total := len(r.DirectlyAffected) + len(r.TransitivelyAffected)
	return fmt.Sprintf("simulated on %s: %s; %d downstream model(s) affected (%d breaking, %d warning)",
		source, strings.Join(descs, ", "), total, r.BreakingCount, r.WarningCount)
}
