package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// RecordModelRun appends one execution record for a model.
func (s *SQLiteStore) RecordModelRun(model, runType string, runtimeSeconds float64, executedAt time.Time) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if runtimeSeconds < 0 {
		return fmt.Errorf("invalid runtime for %s: %f", model, runtimeSeconds)
	}

	id := generateID()
	_, err := s.db.Exec(
		`INSERT INTO model_runs (id, model, run_type, runtime_seconds, executed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, model, runType, runtimeSeconds, executedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run for %s: %w", model, err)
	}

	s.logger.Debug("model run recorded", "id", id, "model", model, "runtime_seconds", runtimeSeconds)
	return nil
}

// GetRunStats returns aggregate runtime statistics for a model.
// Returns nil without error when the model has no recorded runs.
func (s *SQLiteStore) GetRunStats(model string) (*core.RunStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var avg sql.NullFloat64
	var count int
	err := s.db.QueryRow(
		`SELECT AVG(runtime_seconds), COUNT(*) FROM model_runs WHERE model = ?`,
		model,
	).Scan(&avg, &count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get run stats for %s: %w", model, err)
	}
	if count == 0 || !avg.Valid {
		return nil, nil
	}

	return &core.RunStats{AvgRuntimeSeconds: avg.Float64, SampleCount: count}, nil
}

// ListRunStats returns aggregate runtime statistics for every model
// with at least one recorded run.
func (s *SQLiteStore) ListRunStats() (map[string]core.RunStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT model, AVG(runtime_seconds), COUNT(*) FROM model_runs GROUP BY model`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]core.RunStats)
	for rows.Next() {
		var model string
		var avg float64
		var count int
		if err := rows.Scan(&model, &avg, &count); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats[model] = core.RunStats{AvgRuntimeSeconds: avg, SampleCount: count}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list run stats: %w", err)
	}

	return stats, nil
}
