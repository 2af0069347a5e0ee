// Package impact implements what-if change simulation over the model DAG:
// given a hypothetical column change or model removal, it reports every
// downstream model that could be affected, with contract violations and a
// severity grade — without mutating anything.
package impact

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tidemark-data/tidemark/internal/sqlref"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// DefaultMaxDepth bounds downstream traversal. Exceeding it is treated as a
// graph-integrity error (most likely an undetected cycle), not a
// recoverable condition.
const DefaultMaxDepth = 100

// ChangeAction identifies the kind of hypothetical column change.
type ChangeAction string

// Change action constants.
const (
	ActionAdd        ChangeAction = "ADD"
	ActionRemove     ChangeAction = "REMOVE"
	ActionRename     ChangeAction = "RENAME"
	ActionTypeChange ChangeAction = "TYPE_CHANGE"
)

// ColumnChange describes one hypothetical change to a model's output
// column.
type ColumnChange struct {
	Action     ChangeAction `json:"action"`
	ColumnName string       `json:"column_name"`
	NewName    string       `json:"new_name,omitempty"`
	OldType    string       `json:"old_type,omitempty"`
	NewType    string       `json:"new_type,omitempty"`
}

// ReferenceType classifies how an affected model relates to the source.
type ReferenceType string

// Reference type constants.
const (
	ReferenceDirect     ReferenceType = "direct"
	ReferenceTransitive ReferenceType = "transitive"
)

// AffectedModel is one downstream model touched by a simulated change.
type AffectedModel struct {
	ModelName          string                   `json:"model_name"`
	ReferenceType      ReferenceType            `json:"reference_type"`
	ColumnsAffected    []string                 `json:"columns_affected"`
	ContractViolations []core.ContractViolation `json:"contract_violations"`
	Severity           core.Severity            `json:"severity"`
}

// ImpactReport aggregates the result of a column-change simulation.
type ImpactReport struct {
	SourceModel          string          `json:"source_model"`
	Changes              []ColumnChange  `json:"changes"`
	DirectlyAffected     []AffectedModel `json:"directly_affected"`
	TransitivelyAffected []AffectedModel `json:"transitively_affected"`
	BreakingCount        int             `json:"breaking_count"`
	WarningCount         int             `json:"warning_count"`
	Summary              string          `json:"summary"`
}

// ModelRemovalReport aggregates the result of a removal simulation.
type ModelRemovalReport struct {
	Model                string          `json:"model"`
	DirectlyAffected     []AffectedModel `json:"directly_affected"`
	TransitivelyAffected []AffectedModel `json:"transitively_affected"`
	OrphanedModels       []string        `json:"orphaned_models"`
	Summary              string          `json:"summary"`
}

// DepthExceededError reports a downstream traversal that ran past the
// configured depth limit, which almost always means a cycle slipped into
// the adjacency input. It is a hard failure: truncating silently would
// under-report impact.
type DepthExceededError struct {
	Model    string
	MaxDepth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("impact traversal from %q exceeded max depth %d (cycle in dependency graph?)", e.Model, e.MaxDepth)
}

// ColumnExtractor returns the column names referenced by a SQL body. An
// error means "no signal", never "no impact".
type ColumnExtractor func(sqlText string) ([]string, error)

// Config configures an Analyzer.
type Config struct {
	// Models is the known model set, keyed by name.
	Models map[string]*core.ModelDefinition
	// Upstreams maps each model to its direct upstream model names (the
	// simplified adjacency form of the DAG).
	Upstreams map[string][]string
	// MaxDepth bounds downstream traversal; DefaultMaxDepth when zero.
	MaxDepth int
	// Extractor overrides the referenced-column extractor.
	Extractor ColumnExtractor
	// Logger receives diagnostics. Discarded when nil.
	Logger *slog.Logger
}

// Analyzer answers what-if questions about the model graph. It derives a
// reverse adjacency index once at construction and is afterwards read-only,
// so one instance may serve many simulate calls.
type Analyzer struct {
	models      map[string]*core.ModelDefinition
	upstreams   map[string][]string
	downstreams map[string][]string
	maxDepth    int
	extract     ColumnExtractor
	logger      *slog.Logger
}

// New creates an Analyzer from the model set and adjacency map.
func New(cfg Config) *Analyzer {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	extract := cfg.Extractor
	if extract == nil {
		extract = sqlref.ExtractColumns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Invert upstream adjacency into downstream lists, sorted for
	// deterministic traversal.
	downstreams := make(map[string][]string)
	for model, ups := range cfg.Upstreams {
		for _, up := range ups {
			downstreams[up] = append(downstreams[up], model)
		}
	}
	for up := range downstreams {
		sort.Strings(downstreams[up])
	}

	return &Analyzer{
		models:      cfg.Models,
		upstreams:   cfg.Upstreams,
		downstreams: downstreams,
		maxDepth:    maxDepth,
		extract:     extract,
		logger:      logger,
	}
}
