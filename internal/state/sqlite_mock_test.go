package state

import (
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark-data/tidemark/pkg/core"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SQLiteStore{db: db, logger: slog.New(slog.DiscardHandler)}, mock
}

func TestGetWatermark_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT range_start, range_end FROM watermarks").
		WillReturnError(assert.AnError)

	_, err := s.GetWatermark("orders")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWatermark_CorruptDate(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"range_start", "range_end"}).
		AddRow("not-a-date", "2026-08-29")
	mock.ExpectQuery("SELECT range_start, range_end FROM watermarks").
		WillReturnRows(rows)

	_, err := s.GetWatermark("orders")
	assert.ErrorContains(t, err, "corrupt watermark")
}

func TestSavePlan_ExecError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO plans").WillReturnError(assert.AnError)

	err := s.SavePlan(&core.Plan{PlanID: "p"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlan_CorruptPayload(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"payload"}).AddRow("{not json")
	mock.ExpectQuery("SELECT payload FROM plans").WillReturnRows(rows)

	_, err := s.GetPlan("p")
	assert.ErrorContains(t, err, "corrupt plan payload")
}

func TestListRunStats_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT model, AVG").WillReturnError(assert.AnError)

	_, err := s.ListRunStats()
	assert.Error(t, err)
}
