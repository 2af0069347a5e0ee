package diff

import (
	"testing"

	"github.com/tidemark-data/tidemark/pkg/core"
)

func contractModel(sql string, cols ...core.ContractColumn) *core.ModelDefinition {
	return &core.ModelDefinition{
		Name:            "revenue",
		CleanSQL:        sql,
		ContractMode:    core.ContractEnforced,
		ContractColumns: cols,
	}
}

func TestContractChanges_ColumnRemoved(t *testing.T) {
	base := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id, total FROM orders",
			core.ContractColumn{Name: "id", DataType: "INT"},
			core.ContractColumn{Name: "total", DataType: "DOUBLE"},
		),
	}
	target := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id FROM orders",
			core.ContractColumn{Name: "id", DataType: "INT"},
		),
	}
	d := &core.DiffResult{ModifiedModels: []string{"revenue"}}

	results := ContractChanges(base, target, d)
	violations := results["revenue"]
	if len(violations) != 1 {
		t.Fatalf("violations = %+v", violations)
	}
	v := violations[0]
	if v.Code != core.ViolationColumnRemoved || v.Severity != core.SeverityBreaking || v.Column != "total" {
		t.Errorf("violation = %+v", v)
	}
}

func TestContractChanges_TypeSeverity(t *testing.T) {
	base := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id, total FROM orders",
			core.ContractColumn{Name: "id", DataType: "INT"},
			core.ContractColumn{Name: "total", DataType: "INT"},
		),
	}
	target := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id, total FROM orders GROUP BY id",
			core.ContractColumn{Name: "id", DataType: "STRING"},
			core.ContractColumn{Name: "total", DataType: "BIGINT"},
		),
	}
	d := &core.DiffResult{ModifiedModels: []string{"revenue"}}

	violations := ContractChanges(base, target, d)["revenue"]
	if len(violations) != 2 {
		t.Fatalf("violations = %+v", violations)
	}
	// Sorted by column: id then total.
	if violations[0].Column != "id" || violations[0].Severity != core.SeverityBreaking {
		t.Errorf("incompatible change = %+v", violations[0])
	}
	if violations[1].Column != "total" || violations[1].Severity != core.SeverityWarning {
		t.Errorf("widening change = %+v", violations[1])
	}
	if violations[0].Code != core.ViolationTypeChanged {
		t.Errorf("code = %s", violations[0].Code)
	}
}

func TestContractChanges_NewContractIsNotBreaking(t *testing.T) {
	base := map[string]*core.ModelDefinition{
		"revenue": {Name: "revenue", CleanSQL: "SELECT id FROM orders"},
	}
	target := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id FROM orders",
			core.ContractColumn{Name: "id", DataType: "INT"},
		),
	}
	d := &core.DiffResult{ModifiedModels: []string{"revenue"}}

	if results := ContractChanges(base, target, d); len(results) != 0 {
		t.Errorf("results = %+v", results)
	}
}

func TestContractChanges_SkipsUnmodified(t *testing.T) {
	base := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id FROM orders",
			core.ContractColumn{Name: "id", DataType: "INT"},
		),
	}
	target := map[string]*core.ModelDefinition{
		"revenue": contractModel("SELECT id FROM orders"),
	}
	d := &core.DiffResult{}

	if results := ContractChanges(base, target, d); len(results) != 0 {
		t.Errorf("results = %+v", results)
	}
}
