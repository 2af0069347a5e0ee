package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidemark-data/tidemark/internal/impact"
	"github.com/tidemark-data/tidemark/internal/loader"
)

// NewImpactCommand creates the impact command group.
func NewImpactCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Simulate the downstream impact of a schema change",
		Long: `Simulate schema changes against the dependency graph before they
land: which downstream models are touched, which contracts break, and
which models would be orphaned by a removal.`,
	}

	cmd.AddCommand(newImpactColumnCommand())
	cmd.AddCommand(newImpactTypeCommand())
	cmd.AddCommand(newImpactRemoveCommand())

	return cmd
}

func newImpactColumnCommand() *cobra.Command {
	var (
		removed []string
		added   []string
		renamed []string
	)

	cmd := &cobra.Command{
		Use:   "column <model>",
		Short: "Simulate column additions, removals, and renames",
		Example: `  # What breaks if orders drops the discount column?
  tidemark impact column orders --remove discount

  # Rename amount to gross_amount and add a new column in one pass
  tidemark impact column orders --rename amount=gross_amount --add net_amount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := collectChanges(removed, added, renamed)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				return fmt.Errorf("no changes given: use --remove, --add, or --rename")
			}

			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			report, err := analyzer.SimulateColumnChange(args[0], changes)
			if err != nil {
				return err
			}

			cfg := ConfigFrom(cmd.Context())
			if cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), report)
			}
			return renderImpactTable(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringArrayVar(&removed, "remove", nil, "Column to remove (repeatable)")
	cmd.Flags().StringArrayVar(&added, "add", nil, "Column to add (repeatable)")
	cmd.Flags().StringArrayVar(&renamed, "rename", nil, "Column rename as old=new (repeatable)")

	return cmd
}

func newImpactTypeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "type <model> <column> <old-type> <new-type>",
		Short: "Simulate a column type change",
		Example: `  # Widening is usually safe
  tidemark impact type orders amount INT BIGINT

  # Narrowing or crossing families is breaking
  tidemark impact type orders id BIGINT INT`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			report, err := analyzer.SimulateTypeChange(args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}

			cfg := ConfigFrom(cmd.Context())
			if cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), report)
			}
			return renderImpactTable(cmd.OutOrStdout(), report)
		},
	}
}

func newImpactRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Simulate removing a model entirely",
		Example: `  # Which models break or become orphaned if orders goes away?
  tidemark impact remove orders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			report, err := analyzer.SimulateModelRemoval(args[0])
			if err != nil {
				return err
			}

			cfg := ConfigFrom(cmd.Context())
			if cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), report)
			}
			return renderRemovalTable(cmd.OutOrStdout(), report)
		},
	}
}

// newAnalyzer loads the target models and builds an impact analyzer
// over their dependency graph.
func newAnalyzer(cmd *cobra.Command) (*impact.Analyzer, error) {
	cfg := ConfigFrom(cmd.Context())
	logger := LoggerFrom(cmd.Context())

	models, err := loader.New(logger).LoadDir(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	graph, err := loader.BuildGraph(models)
	if err != nil {
		return nil, err
	}

	return impact.New(impact.Config{
		Models:    models,
		Upstreams: graph.UpstreamMap(),
		MaxDepth:  cfg.Impact.MaxDepth,
		Logger:    logger,
	}), nil
}

// collectChanges converts the flag values into column changes.
func collectChanges(removed, added, renamed []string) ([]impact.ColumnChange, error) {
	var changes []impact.ColumnChange
	for _, name := range removed {
		changes = append(changes, impact.ColumnChange{Action: impact.ActionRemove, ColumnName: name})
	}
	for _, name := range added {
		changes = append(changes, impact.ColumnChange{Action: impact.ActionAdd, ColumnName: name})
	}
	for _, pair := range renamed {
		oldName, newName, ok := strings.Cut(pair, "=")
		if !ok || oldName == "" || newName == "" {
			return nil, fmt.Errorf("invalid --rename %q, expected old=new", pair)
		}
		changes = append(changes, impact.ColumnChange{
			Action:     impact.ActionRename,
			ColumnName: oldName,
			NewName:    newName,
		})
	}
	return changes, nil
}
