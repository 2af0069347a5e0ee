package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tidemark-data/tidemark/internal/config"
	"github.com/tidemark-data/tidemark/internal/diff"
	"github.com/tidemark-data/tidemark/internal/loader"
	"github.com/tidemark-data/tidemark/internal/planner"
	"github.com/tidemark-data/tidemark/internal/state"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var (
		asOf      string
		baseRef   string
		targetRef string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an execution plan from two model snapshots",
		Long: `Diff the base snapshot against the target models directory and
generate a deterministic execution plan: which models run, how, in what
order, and at what estimated cost.

Identical inputs always produce the same plan bytes, so plan output is
safe to post on pull requests and diff across CI runs.`,
		Example: `  # Plan against an as-of date (required, never inferred from the clock)
  tidemark plan --as-of 2026-08-30

  # Emit JSON for CI and persist the plan for audit
  tidemark plan --as-of 2026-08-30 --output json --save`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, asOf, baseRef, targetRef, save)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Planning date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&baseRef, "base-ref", "base", "Label for the base snapshot")
	cmd.Flags().StringVar(&targetRef, "target-ref", "target", "Label for the target snapshot")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the generated plan to the state database")
	_ = cmd.MarkFlagRequired("as-of")

	return cmd
}

func runPlan(cmd *cobra.Command, asOf, baseRef, targetRef string, save bool) error {
	cfg := ConfigFrom(cmd.Context())
	logger := LoggerFrom(cmd.Context())

	asOfDate, err := core.ParseDate(asOf)
	if err != nil {
		return fmt.Errorf("invalid --as-of date: %w", err)
	}

	ld := loader.New(logger)
	baseModels, err := ld.LoadDir(cfg.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to load base snapshot: %w", err)
	}
	targetModels, err := ld.LoadDir(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("failed to load target models: %w", err)
	}

	d := diff.WithASTDetail(diff.Classify(baseModels, targetModels), baseModels, targetModels)

	graph, err := loader.BuildGraph(targetModels)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	watermarks, err := store.ListWatermarks()
	if err != nil {
		return err
	}
	runStats, err := store.ListRunStats()
	if err != nil {
		return err
	}

	plan, err := planner.Generate(planner.Inputs{
		Models:          targetModels,
		Diff:            d,
		Graph:           graph,
		Watermarks:      watermarks,
		RunStats:        runStats,
		Config:          plannerConfig(cfg),
		Base:            baseRef,
		Target:          targetRef,
		AsOfDate:        asOfDate,
		BaseSQL:         diff.BaseSQL(d, baseModels),
		ContractResults: diff.ContractChanges(baseModels, targetModels, d),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if save {
		if err := store.SavePlan(plan); err != nil {
			return err
		}
		logger.Info("plan persisted", "plan_id", plan.PlanID)
	}

	if cfg.Output == "json" {
		return renderJSON(cmd.OutOrStdout(), plan)
	}
	return renderPlanTable(cmd.OutOrStdout(), plan)
}

// plannerConfig maps the project configuration onto planner knobs.
// Zero values fall through to the planner defaults.
func plannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		DefaultLookbackDays:     cfg.Planner.DefaultLookbackDays,
		DefaultRuntimeSeconds:   cfg.Planner.DefaultRuntimeSeconds,
		CostPerComputeSecondUSD: cfg.Planner.CostPerComputeSecondUSD,
		SkipCosmeticChanges:     cfg.Planner.SkipCosmeticChanges,
	}
}

// openStore opens the state database, creating its directory if needed.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if cfg.StatePath != ":memory:" && stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
