package diff

import (
	"reflect"
	"testing"

	"github.com/tidemark-data/tidemark/pkg/core"
)

func def(name, sqlText string) *core.ModelDefinition {
	return &core.ModelDefinition{
		Name:     name,
		Kind:     core.KindFullRefresh,
		CleanSQL: sqlText,
	}
}

func modelSet(models ...*core.ModelDefinition) map[string]*core.ModelDefinition {
	out := make(map[string]*core.ModelDefinition, len(models))
	for _, m := range models {
		out[m.Name] = m
	}
	return out
}

func TestClassify(t *testing.T) {
	base := modelSet(
		def("staging.orders", "SELECT * FROM raw.orders"),
		def("marts.revenue", "SELECT sum(amount) FROM staging.orders"),
		def("marts.retired", "SELECT 1"),
	)
	target := modelSet(
		def("staging.orders", "SELECT * FROM raw.orders"),
		def("marts.revenue", "SELECT sum(amount), count(*) FROM staging.orders"),
		def("marts.margin", "SELECT 2"),
	)

	d := Classify(base, target)

	if !reflect.DeepEqual(d.AddedModels, []string{"marts.margin"}) {
		t.Errorf("added = %v", d.AddedModels)
	}
	if !reflect.DeepEqual(d.ModifiedModels, []string{"marts.revenue"}) {
		t.Errorf("modified = %v", d.ModifiedModels)
	}
	if !reflect.DeepEqual(d.RemovedModels, []string{"marts.retired"}) {
		t.Errorf("removed = %v", d.RemovedModels)
	}
}

func TestClassify_Empty(t *testing.T) {
	d := Classify(nil, nil)
	if len(d.AddedModels)+len(d.ModifiedModels)+len(d.RemovedModels) != 0 {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestComputeASTDiff_Contracted(t *testing.T) {
	base := def("m", "SELECT id, amount FROM t")
	base.ContractColumns = []core.ContractColumn{
		{Name: "id", DataType: "INT"},
		{Name: "amount", DataType: "DOUBLE"},
	}
	target := def("m", "SELECT id, amount, fee FROM t")
	target.ContractColumns = []core.ContractColumn{
		{Name: "id", DataType: "BIGINT"},
		{Name: "fee", DataType: "DOUBLE"},
	}

	detail := ComputeASTDiff(base, target)
	if detail == nil {
		t.Fatal("expected detail")
	}
	if !reflect.DeepEqual(detail.AddedColumns, []string{"fee"}) {
		t.Errorf("added = %v", detail.AddedColumns)
	}
	if !reflect.DeepEqual(detail.RemovedColumns, []string{"amount"}) {
		t.Errorf("removed = %v", detail.RemovedColumns)
	}
	if !reflect.DeepEqual(detail.ChangedColumns, []string{"id"}) {
		t.Errorf("changed = %v", detail.ChangedColumns)
	}
	if detail.ChangeType != core.ChangeColumnsRemoved {
		t.Errorf("change type = %v", detail.ChangeType)
	}
}

func TestComputeASTDiff_FromReferencedColumns(t *testing.T) {
	base := def("m", "SELECT id FROM t")
	target := def("m", "SELECT id, amount FROM t")

	detail := ComputeASTDiff(base, target)
	if detail == nil {
		t.Fatal("expected detail")
	}
	if !reflect.DeepEqual(detail.AddedColumns, []string{"amount"}) {
		t.Errorf("added = %v", detail.AddedColumns)
	}
	if detail.ChangeType != core.ChangeColumnsAdded {
		t.Errorf("change type = %v", detail.ChangeType)
	}
}

func TestComputeASTDiff_Unparseable(t *testing.T) {
	base := def("m", "SELECT 'broken FROM t")
	target := def("m", "SELECT id FROM t")
	if detail := ComputeASTDiff(base, target); detail != nil {
		t.Errorf("expected nil detail, got %+v", detail)
	}
}

func TestWithASTDetail(t *testing.T) {
	base := modelSet(def("m", "SELECT id FROM t"))
	target := modelSet(def("m", "SELECT id, amount FROM t"))

	d := WithASTDetail(Classify(base, target), base, target)
	if d.ASTDiffs["m"] == nil {
		t.Fatal("expected AST detail for m")
	}
}

func TestBaseSQL(t *testing.T) {
	base := modelSet(def("m", "SELECT 1"), def("other", "SELECT 2"))
	target := modelSet(def("m", "SELECT 1 -- changed"), def("other", "SELECT 2"))

	d := Classify(base, target)
	got := BaseSQL(d, base)
	if !reflect.DeepEqual(got, map[string]string{"m": "SELECT 1"}) {
		t.Errorf("BaseSQL = %v", got)
	}
}

func TestHashSQL_Stable(t *testing.T) {
	if HashSQL("SELECT 1") != HashSQL("SELECT 1") {
		t.Error("hash must be deterministic")
	}
	if HashSQL("SELECT 1") == HashSQL("SELECT 2") {
		t.Error("distinct inputs must not collide")
	}
}
