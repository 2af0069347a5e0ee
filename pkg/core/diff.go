package core

import "sort"

// DiffResult classifies models between two snapshots. The three sets are
// disjoint; models in none of them are unchanged.
type DiffResult struct {
	AddedModels    []string `json:"added_models"`
	ModifiedModels []string `json:"modified_models"`
	RemovedModels  []string `json:"removed_models"`

	// ASTDiffs holds optional column-level detail for directly changed
	// models, keyed by model name.
	ASTDiffs map[string]*ASTDiffDetail `json:"ast_diffs,omitempty"`
}

// Normalize sorts the classification sets in place for stable output.
func (d *DiffResult) Normalize() {
	sort.Strings(d.AddedModels)
	sort.Strings(d.ModifiedModels)
	sort.Strings(d.RemovedModels)
}

// IsAdded reports whether the model is newly added in the target snapshot.
func (d *DiffResult) IsAdded(model string) bool {
	return containsString(d.AddedModels, model)
}

// IsModified reports whether the model's SQL changed between snapshots.
func (d *DiffResult) IsModified(model string) bool {
	return containsString(d.ModifiedModels, model)
}

// ChangeType classifies an AST-level diff.
type ChangeType string

// Change type constants.
const (
	ChangeColumnsAdded   ChangeType = "columns_added"
	ChangeColumnsRemoved ChangeType = "columns_removed"
	ChangeColumnsAltered ChangeType = "columns_altered"
	ChangeLogicOnly      ChangeType = "logic_only"
)

// ASTDiffDetail summarizes the column-level difference of one model between
// two snapshots.
type ASTDiffDetail struct {
	AddedColumns   []string   `json:"added_columns,omitempty"`
	RemovedColumns []string   `json:"removed_columns,omitempty"`
	ChangedColumns []string   `json:"changed_columns,omitempty"`
	ChangeType     ChangeType `json:"change_type"`
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
