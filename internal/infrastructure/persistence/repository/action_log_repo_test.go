package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
)

var logColumns = []string{
	"id", "expense_id", "legacy_id", "action", "outcome", "error_message",
	"processor_fee", "is_manual", "currency", "correlation_id", "created_at",
}

func newRepo(t *testing.T) (*ActionLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewActionLogRepository(sqlite.NewDB(db, zap.NewNop()), zap.NewNop()), mock
}

func TestActionLogRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)
	fee := int64(1250)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := &entity.ActionLogEntry{
		ExpenseID:     "exp-1",
		LegacyID:      101,
		Action:        "PAY",
		Outcome:       entity.OutcomeSucceeded,
		ProcessorFee:  &fee,
		IsManual:      true,
		Currency:      "USD",
		CorrelationID: "corr-1",
		CreatedAt:     created,
	}

	mock.ExpectExec("INSERT INTO action_log").
		WithArgs("exp-1", int64(101), "PAY", entity.OutcomeSucceeded, "",
			sql.NullInt64{Int64: 1250, Valid: true}, true, "USD", "corr-1", created).
		WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, int64(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepository_CreateUnsetFee(t *testing.T) {
	repo, mock := newRepo(t)
	entry := &entity.ActionLogEntry{ExpenseID: "exp-1", Action: "REJECT", Outcome: entity.OutcomeFailed, ErrorMessage: "Network timeout"}

	mock.ExpectExec("INSERT INTO action_log").
		WithArgs("exp-1", int64(0), "REJECT", entity.OutcomeFailed, "Network timeout",
			sql.NullInt64{}, false, "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepository_CreateError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO action_log").WillReturnError(errors.New("database is locked"))

	err := repo.Create(context.Background(), &entity.ActionLogEntry{ExpenseID: "exp-1"})
	assert.ErrorContains(t, err, "database is locked")
}

func TestActionLogRepository_ListByExpenseID(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(logColumns).
		AddRow(2, "exp-1", 101, "PAY", "SUCCEEDED", "", 0, false, "USD", "c2", now).
		AddRow(1, "exp-1", 101, "REJECT", "FAILED", "Network timeout", nil, false, "", "c1", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM action_log").
		WithArgs("exp-1", -1, 0).
		WillReturnRows(rows)

	entries, err := repo.ListByExpenseID(context.Background(), "exp-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NotNil(t, entries[0].ProcessorFee, "zero fee is kept")
	assert.Equal(t, int64(0), *entries[0].ProcessorFee)
	assert.Nil(t, entries[1].ProcessorFee)
	assert.Equal(t, "Network timeout", entries[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepository_ListUsesTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlDB := sqlite.NewDB(db, zap.NewNop())
	repo := NewActionLogRepository(sqlDB, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM action_log").
		WithArgs("exp-1", 10, 20).
		WillReturnRows(sqlmock.NewRows(logColumns))
	mock.ExpectCommit()

	err = sqlDB.WithTransaction(context.Background(), func(ctx context.Context) error {
		entries, err := repo.ListByExpenseID(ctx, "exp-1", 10, 20)
		assert.Empty(t, entries)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var summaryColumns = []string{
	"expense_id", "legacy_id", "last_action", "last_outcome", "last_error",
	"attempts", "failures", "updated_at",
}

func TestActionLogRepository_UpsertSummary(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO expense_action_summary (.+) ON CONFLICT\\(expense_id\\) DO UPDATE").
		WithArgs("exp-1", int64(101), "PAY", entity.OutcomeFailed, "Network timeout", 1, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO expense_action_summary").
		WithArgs("exp-1", int64(101), "PAY", entity.OutcomeSucceeded, "", 0, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.UpsertSummary(ctx, &entity.ActionLogEntry{
		ExpenseID: "exp-1", LegacyID: 101, Action: "PAY", Outcome: entity.OutcomeFailed,
		ErrorMessage: "Network timeout", CreatedAt: created,
	}))
	require.NoError(t, repo.UpsertSummary(ctx, &entity.ActionLogEntry{
		ExpenseID: "exp-1", LegacyID: 101, Action: "PAY", Outcome: entity.OutcomeSucceeded, CreatedAt: created,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepository_GetSummary(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM expense_action_summary").
		WithArgs("exp-1").
		WillReturnRows(sqlmock.NewRows(summaryColumns).
			AddRow("exp-1", 101, "PAY", "SUCCEEDED", "", 3, 1, now))
	mock.ExpectQuery("SELECT (.+) FROM expense_action_summary").
		WithArgs("exp-2").
		WillReturnRows(sqlmock.NewRows(summaryColumns))

	summary, err := repo.GetSummary(context.Background(), "exp-1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Attempts)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, "PAY", summary.LastAction)

	summary, err = repo.GetSummary(context.Background(), "exp-2")
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}
