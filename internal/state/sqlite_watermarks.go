package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// GetWatermark retrieves the processed date range for a model.
// Returns nil without error when no watermark exists.
func (s *SQLiteStore) GetWatermark(model string) (*core.Watermark, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var rangeStart, rangeEnd string
	err := s.db.QueryRow(
		`SELECT range_start, range_end FROM watermarks WHERE model = ?`,
		model,
	).Scan(&rangeStart, &rangeEnd)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark for %s: %w", model, err)
	}

	return scanWatermark(model, rangeStart, rangeEnd)
}

// SetWatermark upserts the processed date range for a model.
func (s *SQLiteStore) SetWatermark(model string, w core.Watermark) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if w.RangeEnd.Before(w.RangeStart) {
		return fmt.Errorf("invalid watermark for %s: end %s before start %s",
			model, w.RangeEnd, w.RangeStart)
	}

	_, err := s.db.Exec(
		`INSERT INTO watermarks (model, range_start, range_end, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(model) DO UPDATE SET
		   range_start = excluded.range_start,
		   range_end = excluded.range_end,
		   updated_at = excluded.updated_at`,
		model, w.RangeStart.String(), w.RangeEnd.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set watermark for %s: %w", model, err)
	}

	s.logger.Debug("watermark set", "model", model, "start", w.RangeStart, "end", w.RangeEnd)
	return nil
}

// ListWatermarks returns the watermark for every model that has one.
func (s *SQLiteStore) ListWatermarks() (map[string]core.Watermark, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT model, range_start, range_end FROM watermarks`)
	if err != nil {
		return nil, fmt.Errorf("failed to list watermarks: %w", err)
	}
	defer rows.Close()

	watermarks := make(map[string]core.Watermark)
	for rows.Next() {
		var model, rangeStart, rangeEnd string
		if err := rows.Scan(&model, &rangeStart, &rangeEnd); err != nil {
			return nil, fmt.Errorf("failed to scan watermark: %w", err)
		}
		w, err := scanWatermark(model, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		watermarks[model] = *w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list watermarks: %w", err)
	}

	return watermarks, nil
}

func scanWatermark(model, rangeStart, rangeEnd string) (*core.Watermark, error) {
	start, err := core.ParseDate(rangeStart)
	if err != nil {
		return nil, fmt.Errorf("corrupt watermark start for %s: %w", model, err)
	}
	end, err := core.ParseDate(rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("corrupt watermark end for %s: %w", model, err)
	}
	return &core.Watermark{RangeStart: start, RangeEnd: end}, nil
}
