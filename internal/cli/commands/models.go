package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidemark-data/tidemark/internal/loader"
)

// NewModelsCommand creates the models command group.
func NewModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the loaded model set",
	}

	cmd.AddCommand(newModelsListCommand())

	return cmd
}

func newModelsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all models in dependency order",
		Example: `  # List models with kind, contract, and dependencies
  tidemark models list

  # List models as JSON
  tidemark models list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFrom(cmd.Context())
			logger := LoggerFrom(cmd.Context())

			models, err := loader.New(logger).LoadDir(cfg.ModelsDir)
			if err != nil {
				return fmt.Errorf("failed to load models: %w", err)
			}

			graph, err := loader.BuildGraph(models)
			if err != nil {
				return err
			}

			sorted, err := graph.TopologicalSort()
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				ordered := make([]modelInfo, 0, len(sorted))
				for _, name := range sorted {
					ordered = append(ordered, newModelInfo(models[name], graph.Parents(name)))
				}
				return renderJSON(cmd.OutOrStdout(), ordered)
			}
			return renderModelsTable(cmd.OutOrStdout(), sorted, models, graph)
		},
	}
}
