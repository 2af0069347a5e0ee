package core

import "testing"

func TestDiffResultMembership(t *testing.T) {
	d := &DiffResult{
		AddedModels:    []string{"audit"},
		ModifiedModels: []string{"orders", "revenue"},
		RemovedModels:  []string{"legacy"},
	}

	if !d.IsAdded("audit") {
		t.Error("IsAdded(audit) = false, want true")
	}
	if d.IsAdded("orders") {
		t.Error("IsAdded(orders) = true, want false")
	}
	if !d.IsModified("orders") || !d.IsModified("revenue") {
		t.Error("IsModified should report both modified models")
	}
	if d.IsModified("audit") || d.IsModified("legacy") {
		t.Error("IsModified should be false for added and removed models")
	}
}

func TestDiffResultNormalize(t *testing.T) {
	d := &DiffResult{
		AddedModels:    []string{"b", "a"},
		ModifiedModels: []string{"z", "m"},
		RemovedModels:  []string{"y", "x"},
	}
	d.Normalize()

	if d.AddedModels[0] != "a" || d.ModifiedModels[0] != "m" || d.RemovedModels[0] != "x" {
		t.Errorf("sets not sorted: %+v", d)
	}
}
