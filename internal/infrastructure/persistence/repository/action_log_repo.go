package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
)

// ActionLogRepository implements port.ActionLogRepository
type ActionLogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewActionLogRepository creates a new action log repository
func NewActionLogRepository(db *sqlite.DB, logger *zap.Logger) *ActionLogRepository {
	return &ActionLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a resolved action
func (r *ActionLogRepository) Create(ctx context.Context, entry *entity.ActionLogEntry) error {
	query := `
		INSERT INTO action_log (
			expense_id, legacy_id, action, outcome, error_message,
			processor_fee, is_manual, currency, correlation_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var fee sql.NullInt64
	if entry.ProcessorFee != nil {
		fee = sql.NullInt64{Int64: *entry.ProcessorFee, Valid: true}
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entry.ExpenseID,
		entry.LegacyID,
		entry.Action,
		entry.Outcome,
		entry.ErrorMessage,
		fee,
		entry.IsManual,
		entry.Currency,
		entry.CorrelationID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create action log entry",
			zap.String("expense_id", entry.ExpenseID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create action log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByExpenseID returns the entries of an expense, newest first.
// A limit of 0 returns every entry.
func (r *ActionLogRepository) ListByExpenseID(ctx context.Context, expenseID string, limit, offset int) ([]*entity.ActionLogEntry, error) {
	query := `
		SELECT id, expense_id, legacy_id, action, outcome, error_message,
			processor_fee, is_manual, currency, correlation_id, created_at
		FROM action_log
		WHERE expense_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, expenseID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list action log", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list action log: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ActionLogEntry
	for rows.Next() {
		var (
			entry entity.ActionLogEntry
			fee   sql.NullInt64
		)
		err := rows.Scan(
			&entry.ID,
			&entry.ExpenseID,
			&entry.LegacyID,
			&entry.Action,
			&entry.Outcome,
			&entry.ErrorMessage,
			&fee,
			&entry.IsManual,
			&entry.Currency,
			&entry.CorrelationID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action log entry: %w", err)
		}
		if fee.Valid {
			v := fee.Int64
			entry.ProcessorFee = &v
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// UpsertSummary folds entry into the summary row of its expense.
// Call it in the same transaction as Create so both stay consistent.
func (r *ActionLogRepository) UpsertSummary(ctx context.Context, entry *entity.ActionLogEntry) error {
	query := `
		INSERT INTO expense_action_summary (
			expense_id, legacy_id, last_action, last_outcome, last_error,
			attempts, failures, updated_at
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(expense_id) DO UPDATE SET
			legacy_id = CASE WHEN excluded.legacy_id <> 0 THEN excluded.legacy_id ELSE legacy_id END,
			last_action = excluded.last_action,
			last_outcome = excluded.last_outcome,
			last_error = excluded.last_error,
			attempts = attempts + 1,
			failures = failures + excluded.failures,
			updated_at = excluded.updated_at
	`

	failures := 0
	if entry.Outcome == entity.OutcomeFailed {
		failures = 1
	}
	updated := entry.CreatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entry.ExpenseID,
		entry.LegacyID,
		entry.Action,
		entry.Outcome,
		entry.ErrorMessage,
		failures,
		updated,
	)
	if err != nil {
		r.logger.Error("Failed to upsert action summary",
			zap.String("expense_id", entry.ExpenseID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert action summary: %w", err)
	}
	return nil
}

// GetSummary returns the summary row of an expense, or nil when none exists
func (r *ActionLogRepository) GetSummary(ctx context.Context, expenseID string) (*entity.ActionSummary, error) {
	query := `
		SELECT expense_id, legacy_id, last_action, last_outcome, last_error,
			attempts, failures, updated_at
		FROM expense_action_summary
		WHERE expense_id = ?
	`

	var summary entity.ActionSummary
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, expenseID).Scan(
		&summary.ExpenseID,
		&summary.LegacyID,
		&summary.LastAction,
		&summary.LastOutcome,
		&summary.LastError,
		&summary.Attempts,
		&summary.Failures,
		&summary.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get action summary", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get action summary: %w", err)
	}
	return &summary, nil
}

var _ port.ActionLogRepository = (*ActionLogRepository)(nil)
