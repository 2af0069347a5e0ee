// Package state persists planner inputs and outputs in SQLite.
// It tracks incremental watermarks, model run history, and saved plans.
package state

import (
	"time"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// Store is the persistence interface consumed by the planner CLI.
type Store interface {
	// Watermarks
	GetWatermark(model string) (*core.Watermark, error)
	SetWatermark(model string, w core.Watermark) error
	ListWatermarks() (map[string]core.Watermark, error)

	// Run history
	RecordModelRun(model, runType string, runtimeSeconds float64, executedAt time.Time) error
	GetRunStats(model string) (*core.RunStats, error)
	ListRunStats() (map[string]core.RunStats, error)

	// Plans
	SavePlan(plan *core.Plan) error
	GetPlan(planID string) (*core.Plan, error)
	ListPlans(limit int) ([]*core.Plan, error)

	Close() error
}
