package diff

import (
	"fmt"
	"sort"

	"github.com/tidemark-data/tidemark/internal/impact"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// ContractChanges compares declared output contracts between base and
// target for every modified model and reports violations. Models
// without an enforced contract on the base side produce nothing: a
// contract being introduced is not a breakage.
func ContractChanges(base, target map[string]*core.ModelDefinition, d *core.DiffResult) map[string][]core.ContractViolation {
	results := make(map[string][]core.ContractViolation)

	names := make([]string, 0, len(target))
	for name := range target {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !d.IsModified(name) {
			continue
		}
		baseModel := base[name]
		if baseModel == nil || !baseModel.ContractEnforced() {
			continue
		}
		targetModel := target[name]

		violations := compareContracts(name, baseModel.ContractColumns, targetModel.ContractColumns)
		if len(violations) > 0 {
			results[name] = violations
		}
	}

	return results
}

// compareContracts diffs two contract column lists by column name.
func compareContracts(model string, baseCols, targetCols []core.ContractColumn) []core.ContractViolation {
	targetByName := make(map[string]core.ContractColumn, len(targetCols))
	for _, col := range targetCols {
		targetByName[col.Name] = col
	}

	var violations []core.ContractViolation
	for _, baseCol := range baseCols {
		targetCol, ok := targetByName[baseCol.Name]
		if !ok {
			violations = append(violations, core.ContractViolation{
				Model:    model,
				Column:   baseCol.Name,
				Code:     core.ViolationColumnRemoved,
				Severity: core.SeverityBreaking,
				Message:  fmt.Sprintf("contracted column %s removed from %s", baseCol.Name, model),
			})
			continue
		}

		if targetCol.DataType != baseCol.DataType {
			severity := core.SeverityWarning
			if !impact.IsCompatible(baseCol.DataType, targetCol.DataType) {
				severity = core.SeverityBreaking
			}
			violations = append(violations, core.ContractViolation{
				Model:    model,
				Column:   baseCol.Name,
				Code:     core.ViolationTypeChanged,
				Severity: severity,
				Message: fmt.Sprintf("contracted column %s changed type %s -> %s",
					baseCol.Name, baseCol.DataType, targetCol.DataType),
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Column < violations[j].Column
	})
	return violations
}
