// Command tidemark plans SQL transformation runs and simulates the
// impact of schema changes.
package main

import (
	"os"

	"github.com/tidemark-data/tidemark/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
