package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tidemark-data/tidemark/internal/config"
	"github.com/tidemark-data/tidemark/internal/impact"
)

func writeModel(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, name+".sql")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func testConfig(modelsDir, baseDir string) *config.Config {
	return &config.Config{
		ModelsDir: modelsDir,
		BaseDir:   baseDir,
		StatePath: ":memory:",
		Output:    config.DefaultOutput,
		Impact:    config.ImpactConfig{MaxDepth: 10},
	}
}

func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	cmd.SetContext(WithRuntime(context.Background(), cfg, slog.New(slog.DiscardHandler)))
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewPlanCommand(t *testing.T) {
	cmd := NewPlanCommand()

	if cmd.Use != "plan" {
		t.Errorf("Use = %q, want %q", cmd.Use, "plan")
	}
	if cmd.Short == "" {
		t.Error("Short should not be empty")
	}
	for _, flag := range []string{"as-of", "base-ref", "target-ref", "save"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag %q should exist", flag)
		}
	}
}

func TestNewImpactCommand(t *testing.T) {
	cmd := NewImpactCommand()

	if cmd.Use != "impact" {
		t.Errorf("Use = %q, want %q", cmd.Use, "impact")
	}

	subs := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	for _, want := range []string{"column", "type", "remove"} {
		if !subs[want] {
			t.Errorf("subcommand %q should exist", want)
		}
	}
}

func TestNewModelsCommand(t *testing.T) {
	cmd := NewModelsCommand()

	if cmd.Use != "models" {
		t.Errorf("Use = %q, want %q", cmd.Use, "models")
	}

	found := false
	for _, sub := range cmd.Commands() {
		if sub.Name() == "list" {
			found = true
		}
	}
	if !found {
		t.Error("subcommand \"list\" should exist")
	}
}

func TestCollectChanges(t *testing.T) {
	changes, err := collectChanges(
		[]string{"discount"},
		[]string{"net_amount"},
		[]string{"amount=gross_amount"},
	)
	if err != nil {
		t.Fatalf("collectChanges() error = %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("len(changes) = %d, want 3", len(changes))
	}
	if changes[0].Action != impact.ActionRemove || changes[0].ColumnName != "discount" {
		t.Errorf("changes[0] = %+v, want remove discount", changes[0])
	}
	if changes[1].Action != impact.ActionAdd || changes[1].ColumnName != "net_amount" {
		t.Errorf("changes[1] = %+v, want add net_amount", changes[1])
	}
	if changes[2].Action != impact.ActionRename || changes[2].NewName != "gross_amount" {
		t.Errorf("changes[2] = %+v, want rename to gross_amount", changes[2])
	}
}

func TestCollectChanges_InvalidRename(t *testing.T) {
	tests := []string{"amount", "amount=", "=gross_amount"}
	for _, pair := range tests {
		_, err := collectChanges(nil, nil, []string{pair})
		if err == nil {
			t.Errorf("collectChanges(rename=%q) should fail", pair)
		}
	}
}

func TestPlanCommand_EndToEnd(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "base")
	targetDir := filepath.Join(t.TempDir(), "models")

	orders := `/*---
name: orders
kind: incremental_by_time_range
---*/
SELECT id, amount, order_date FROM raw.orders`

	writeModel(t, baseDir, "orders", orders)
	writeModel(t, targetDir, "orders", orders+" WHERE amount > 0")
	writeModel(t, targetDir, "revenue", `/*---
name: revenue
depends_on:
  - orders
---*/
SELECT SUM(amount) AS total FROM orders`)

	out, err := execute(t, NewPlanCommand(), testConfig(targetDir, baseDir),
		"--as-of", "2026-08-30")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"Plan ", "orders", "revenue", "2026-08-30"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got: %s", want, out)
		}
	}
}

func TestPlanCommand_NoChanges(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	writeModel(t, dir, "orders", `/*---
name: orders
---*/
SELECT 1 AS id`)

	out, err := execute(t, NewPlanCommand(), testConfig(dir, dir),
		"--as-of", "2026-08-30")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "No changes to plan.") {
		t.Errorf("output should report no changes, got: %s", out)
	}
}

func TestPlanCommand_MissingAsOf(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, NewPlanCommand(), testConfig(dir, dir))
	if err == nil {
		t.Error("Execute() without --as-of should fail")
	}
}

func TestPlanCommand_JSONOutput(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "base")
	targetDir := filepath.Join(t.TempDir(), "models")

	writeModel(t, baseDir, "orders", "SELECT 1 AS id")
	writeModel(t, targetDir, "orders", "SELECT 1 AS id, 2 AS amount")

	cfg := testConfig(targetDir, baseDir)
	cfg.Output = "json"

	out, err := execute(t, NewPlanCommand(), cfg, "--as-of", "2026-08-30")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"plan_id"`) {
		t.Errorf("JSON output should contain plan_id, got: %s", out)
	}
}

func TestImpactColumnCommand_EndToEnd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	writeModel(t, dir, "orders", `/*---
name: orders
---*/
SELECT id, amount FROM raw.orders`)
	writeModel(t, dir, "revenue", `/*---
name: revenue
depends_on:
  - orders
---*/
SELECT SUM(amount) AS total FROM orders`)

	out, err := execute(t, NewImpactCommand(), testConfig(dir, ""),
		"column", "orders", "--remove", "amount")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "revenue") {
		t.Errorf("output should name the affected model, got: %s", out)
	}
}

func TestImpactColumnCommand_NoChanges(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	writeModel(t, dir, "orders", "SELECT 1 AS id")

	_, err := execute(t, NewImpactCommand(), testConfig(dir, ""),
		"column", "orders")
	if err == nil {
		t.Error("Execute() without any change flags should fail")
	}
}

func TestImpactRemoveCommand_EndToEnd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	writeModel(t, dir, "orders", "SELECT 1 AS id")
	writeModel(t, dir, "revenue", `/*---
name: revenue
depends_on:
  - orders
---*/
SELECT COUNT(*) AS n FROM orders`)

	out, err := execute(t, NewImpactCommand(), testConfig(dir, ""),
		"remove", "orders")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Orphaned models:") || !strings.Contains(out, "revenue") {
		t.Errorf("output should list orphaned models, got: %s", out)
	}
}

func TestModelsListCommand_EndToEnd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	writeModel(t, dir, "orders", "SELECT 1 AS id")
	writeModel(t, dir, "revenue", `/*---
name: revenue
depends_on:
  - orders
---*/
SELECT COUNT(*) AS n FROM orders`)

	out, err := execute(t, NewModelsCommand(), testConfig(dir, ""), "list")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	ordersAt := strings.Index(out, "orders")
	revenueAt := strings.Index(out, "revenue")
	if ordersAt < 0 || revenueAt < 0 {
		t.Fatalf("output should list both models, got: %s", out)
	}
	if ordersAt > revenueAt {
		t.Errorf("models should be in dependency order, got: %s", out)
	}
}
