package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tidemark-data/tidemark/internal/dag"
	"github.com/tidemark-data/tidemark/internal/impact"
	"github.com/tidemark-data/tidemark/pkg/core"
)

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderPlanTable(w io.Writer, plan *core.Plan) error {
	_, _ = fmt.Fprintf(w, "Plan %s (%s -> %s, as of %s)\n\n",
		shortID(plan.PlanID), plan.Base, plan.Target, plan.AsOfDate)

	if len(plan.Steps) == 0 {
		_, _ = fmt.Fprintln(w, "No changes to plan.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Group", "Model", "Run Type", "Range", "Cost (USD)", "Reason"})
	for i, step := range plan.Steps {
		rangeStr := "full"
		if step.InputRange != nil {
			rangeStr = step.InputRange.String()
		}
		reason := step.Reason
		if len(step.ContractViolations) > 0 {
			reason = fmt.Sprintf("%s (%d contract violations)", reason, len(step.ContractViolations))
		}
		t.AppendRow(table.Row{
			i + 1, step.ParallelGroup, step.Model, step.RunType,
			rangeStr, fmt.Sprintf("%.4f", step.EstimatedCostUSD), reason,
		})
	}
	t.Render()

	s := plan.Summary
	_, _ = fmt.Fprintf(w, "\n%d steps, %d models changed, %d cosmetic changes skipped, estimated $%.4f\n",
		s.TotalSteps, len(s.ModelsChanged), len(s.CosmeticChangesSkipped), s.TotalEstimatedCostUSD)
	if s.ContractViolationsTotal > 0 {
		_, _ = fmt.Fprintf(w, "%d contract violations (%d breaking)\n",
			s.ContractViolationsTotal, s.BreakingViolations)
	}
	return nil
}

func renderImpactTable(w io.Writer, report *impact.ImpactReport) error {
	_, _ = fmt.Fprintln(w, report.Summary)

	affected := append([]impact.AffectedModel{}, report.DirectlyAffected...)
	affected = append(affected, report.TransitivelyAffected...)
	if len(affected) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	t := newTable(w)
	t.AppendHeader(table.Row{"Model", "Reference", "Severity", "Columns", "Violations"})
	for _, m := range affected {
		t.AppendRow(table.Row{
			m.ModelName, m.ReferenceType, m.Severity,
			strings.Join(m.ColumnsAffected, ", "), violationCodes(m.ContractViolations),
		})
	}
	t.Render()
	return nil
}

func renderRemovalTable(w io.Writer, report *impact.ModelRemovalReport) error {
	_, _ = fmt.Fprintln(w, report.Summary)

	affected := append([]impact.AffectedModel{}, report.DirectlyAffected...)
	affected = append(affected, report.TransitivelyAffected...)
	if len(affected) > 0 {
		_, _ = fmt.Fprintln(w)
		t := newTable(w)
		t.AppendHeader(table.Row{"Model", "Reference", "Severity"})
		for _, m := range affected {
			t.AppendRow(table.Row{m.ModelName, m.ReferenceType, m.Severity})
		}
		t.Render()
	}

	if len(report.OrphanedModels) > 0 {
		_, _ = fmt.Fprintf(w, "\nOrphaned models: %s\n", strings.Join(report.OrphanedModels, ", "))
	}
	return nil
}

func renderModelsTable(w io.Writer, sorted []string, models map[string]*core.ModelDefinition, graph *dag.Graph) error {
	_, _ = fmt.Fprintf(w, "Models (%d total)\n\n", len(models))

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Model", "Kind", "Contract", "Depends On"})
	for i, name := range sorted {
		m := models[name]
		if m == nil {
			continue
		}
		contract := ""
		if m.ContractEnforced() {
			contract = fmt.Sprintf("%d columns", len(m.ContractColumns))
		}
		t.AppendRow(table.Row{
			i + 1, name, m.Kind, contract, strings.Join(graph.Parents(name), ", "),
		})
	}
	t.Render()
	return nil
}

// modelInfo is the JSON shape for models list.
type modelInfo struct {
	Name         string         `json:"name"`
	Kind         core.ModelKind `json:"kind"`
	Owner        string         `json:"owner,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Contracted   bool           `json:"contracted"`
	Dependencies []string       `json:"dependencies"`
	FilePath     string         `json:"file_path"`
}

func newModelInfo(m *core.ModelDefinition, deps []string) modelInfo {
	if deps == nil {
		deps = []string{}
	}
	return modelInfo{
		Name:         m.Name,
		Kind:         m.Kind,
		Owner:        m.Owner,
		Tags:         m.Tags,
		Contracted:   m.ContractEnforced(),
		Dependencies: deps,
		FilePath:     m.FilePath,
	}
}

func violationCodes(violations []core.ContractViolation) string {
	if len(violations) == 0 {
		return ""
	}
	codes := make([]string, 0, len(violations))
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	return strings.Join(codes, ", ")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
