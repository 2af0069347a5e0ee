// Package diff classifies models between two snapshots into added, modified
// and removed sets, and computes optional column-level detail for directly
// changed models. The planner consumes its output as a read-only input.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/tidemark-data/tidemark/internal/sqlref"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// HashSQL returns the SHA-256 hex digest of a SQL body. Content hashes are
// the only change signal; timestamps are never consulted.
func HashSQL(sqlText string) string {
	h := sha256.Sum256([]byte(sqlText))
	return hex.EncodeToString(h[:])
}

// Classify compares a base and a target model set and produces the diff the
// planner consumes. Models are matched by name; SQL equality is decided on
// the clean SQL hash. Sets in the result are sorted and disjoint.
func Classify(base, target map[string]*core.ModelDefinition) *core.DiffResult {
	result := &core.DiffResult{
		AddedModels:    []string{},
		ModifiedModels: []string{},
		RemovedModels:  []string{},
	}

	for name, t := range target {
		b, ok := base[name]
		if !ok {
			result.AddedModels = append(result.AddedModels, name)
			continue
		}
		if HashSQL(b.CleanSQL) != HashSQL(t.CleanSQL) {
			result.ModifiedModels = append(result.ModifiedModels, name)
		}
	}
	for name := range base {
		if _, ok := target[name]; !ok {
			result.RemovedModels = append(result.RemovedModels, name)
		}
	}

	result.Normalize()
	return result
}

// WithASTDetail enriches a diff with column-level detail for every directly
// changed model present in both snapshots. Detail extraction is best-effort;
// models whose SQL cannot be analyzed simply carry no detail.
func WithASTDetail(d *core.DiffResult, base, target map[string]*core.ModelDefinition) *core.DiffResult {
	for _, name := range d.ModifiedModels {
		b, okB := base[name]
		t, okT := target[name]
		if !okB || !okT {
			continue
		}
		if detail := ComputeASTDiff(b, t); detail != nil {
			if d.ASTDiffs == nil {
				d.ASTDiffs = make(map[string]*core.ASTDiffDetail)
			}
			d.ASTDiffs[name] = detail
		}
	}
	return d
}

// ComputeASTDiff compares the column surface of two versions of one model:
// declared contract columns when present, referenced columns otherwise.
// Returns nil when no column-level signal is available.
func ComputeASTDiff(base, target *core.ModelDefinition) *core.ASTDiffDetail {
	baseCols, okB := columnSurface(base)
	targetCols, okT := columnSurface(target)
	if !okB || !okT {
		return nil
	}

	detail := &core.ASTDiffDetail{}
	for name := range targetCols {
		if _, ok := baseCols[name]; !ok {
			detail.AddedColumns = append(detail.AddedColumns, name)
		} else if baseCols[name] != targetCols[name] {
			detail.ChangedColumns = append(detail.ChangedColumns, name)
		}
	}
	for name := range baseCols {
		if _, ok := targetCols[name]; !ok {
			detail.RemovedColumns = append(detail.RemovedColumns, name)
		}
	}

	sort.Strings(detail.AddedColumns)
	sort.Strings(detail.RemovedColumns)
	sort.Strings(detail.ChangedColumns)

	switch {
	case len(detail.RemovedColumns) > 0:
		detail.ChangeType = core.ChangeColumnsRemoved
	case len(detail.ChangedColumns) > 0:
		detail.ChangeType = core.ChangeColumnsAltered
	case len(detail.AddedColumns) > 0:
		detail.ChangeType = core.ChangeColumnsAdded
	default:
		detail.ChangeType = core.ChangeLogicOnly
	}
	return detail
}

// columnSurface returns column name -> type (type empty without a contract).
func columnSurface(m *core.ModelDefinition) (map[string]string, bool) {
	cols := make(map[string]string)
	if len(m.ContractColumns) > 0 {
		for _, c := range m.ContractColumns {
			cols[c.Name] = c.DataType
		}
		return cols, true
	}
	refs, err := sqlref.ExtractColumns(m.CleanSQL)
	if err != nil {
		return nil, false
	}
	for _, name := range refs {
		cols[name] = ""
	}
	return cols, true
}

// BaseSQL returns a model name -> clean SQL map for the base snapshot,
// restricted to the models the diff marked modified. The planner's cosmetic
// filter needs the prior SQL text for exactly these models.
func BaseSQL(d *core.DiffResult, base map[string]*core.ModelDefinition) map[string]string {
	out := make(map[string]string, len(d.ModifiedModels))
	for _, name := range d.ModifiedModels {
		if b, ok := base[name]; ok {
			out[name] = b.CleanSQL
		}
	}
	return out
}
