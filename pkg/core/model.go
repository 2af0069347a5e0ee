package core

// ModelKind defines how a model is materialized in the warehouse.
type ModelKind string

// Model kind constants.
const (
	// KindFullRefresh rebuilds the whole table on every run.
	KindFullRefresh ModelKind = "FULL_REFRESH"
	// KindIncrementalByTimeRange processes a bounded date range per run.
	KindIncrementalByTimeRange ModelKind = "INCREMENTAL_BY_TIME_RANGE"
	// KindAppendOnly inserts new rows for a date range, never rewrites.
	KindAppendOnly ModelKind = "APPEND_ONLY"
	// KindMergeByKey upserts on a unique key, always over the full input.
	KindMergeByKey ModelKind = "MERGE_BY_KEY"
)

// IsIncremental reports whether the kind carries a watermark and is planned
// with a date range rather than a full rebuild.
func (k ModelKind) IsIncremental() bool {
	return k == KindIncrementalByTimeRange || k == KindAppendOnly
}

// ContractMode controls whether a model's column contract is enforced.
type ContractMode string

// Contract mode constants.
const (
	ContractDisabled ContractMode = "disabled"
	ContractEnforced ContractMode = "enforced"
)

// ContractColumn is one declared output column of a model contract.
type ContractColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// ModelDefinition is a named SQL transformation unit. Instances are created
// by the loader and are immutable once handed to the planner or the impact
// analyzer; the core never mutates them.
type ModelDefinition struct {
	// Name is the globally unique dotted identifier (e.g. "marts.revenue").
	Name string `json:"name"`
	// Kind defines the materialization strategy.
	Kind ModelKind `json:"kind"`
	// RawSQL is the SQL body as written, including any header block.
	RawSQL string `json:"-"`
	// CleanSQL is the SQL body with the header stripped and refs resolved.
	CleanSQL string `json:"-"`
	// ContractMode controls contract enforcement for this model.
	ContractMode ContractMode `json:"contract_mode"`
	// ContractColumns is the ordered declared output schema.
	ContractColumns []ContractColumn `json:"contract_columns,omitempty"`
	// Dependencies are resolved upstream model names, sorted.
	Dependencies []string `json:"dependencies,omitempty"`
	// Owner is the team or person responsible for the model.
	Owner string `json:"owner,omitempty"`
	// Description is a human-readable description.
	Description string `json:"description,omitempty"`
	// Tags are metadata labels for filtering.
	Tags []string `json:"tags,omitempty"`
	// FilePath is the source file the definition was loaded from.
	FilePath string `json:"-"`
}

// ContractEnforced reports whether the model declares an enforced contract.
func (m *ModelDefinition) ContractEnforced() bool {
	return m.ContractMode == ContractEnforced && len(m.ContractColumns) > 0
}

// ContractColumn returns the declared contract column with the given name.
func (m *ModelDefinition) ContractColumn(name string) (ContractColumn, bool) {
	for _, c := range m.ContractColumns {
		if c.Name == name {
			return c, true
		}
	}
	return ContractColumn{}, false
}

// Watermark records the last successfully materialized date range for an
// incrementally-updated model.
type Watermark struct {
	RangeStart Date `json:"range_start"`
	RangeEnd   Date `json:"range_end"`
}

// RunStats holds historical execution statistics for a model.
type RunStats struct {
	AvgRuntimeSeconds float64 `json:"avg_runtime_seconds"`
	SampleCount       int     `json:"sample_count"`
}
