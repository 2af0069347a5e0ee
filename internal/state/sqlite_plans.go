package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// SavePlan persists a generated plan. Saving the same plan twice is a
// no-op because plan IDs are content-derived.
func (s *SQLiteStore) SavePlan(plan *core.Plan) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan %s: %w", plan.PlanID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO plans (plan_id, base_ref, target_ref, as_of_date, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(plan_id) DO NOTHING`,
		plan.PlanID, plan.Base, plan.Target, plan.AsOfDate.String(), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.PlanID, err)
	}

	s.logger.Debug("plan saved", "plan_id", plan.PlanID, "steps", len(plan.Steps))
	return nil
}

// GetPlan retrieves a saved plan by ID.
// Returns nil without error when the plan does not exist.
func (s *SQLiteStore) GetPlan(planID string) (*core.Plan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM plans WHERE plan_id = ?`, planID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %s: %w", planID, err)
	}

	return decodePlan(planID, payload)
}

// ListPlans retrieves the most recently saved plans up to the given limit.
func (s *SQLiteStore) ListPlans(limit int) ([]*core.Plan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT plan_id, payload FROM plans ORDER BY created_at DESC, plan_id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*core.Plan
	for rows.Next() {
		var planID, payload string
		if err := rows.Scan(&planID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plan, err := decodePlan(planID, payload)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

func decodePlan(planID, payload string) (*core.Plan, error) {
	var plan core.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("corrupt plan payload %s: %w", planID, err)
	}
	return &plan, nil
}
