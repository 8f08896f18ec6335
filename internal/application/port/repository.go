package port

import (
	"context"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// ActionLogRepository persists resolved process actions
type ActionLogRepository interface {
	Create(ctx context.Context, entry *entity.ActionLogEntry) error
	ListByExpenseID(ctx context.Context, expenseID string, limit, offset int) ([]*entity.ActionLogEntry, error)
	// UpsertSummary folds entry into the per-expense summary row
	UpsertSummary(ctx context.Context, entry *entity.ActionLogEntry) error
	// GetSummary returns nil when the expense has no recorded action
	GetSummary(ctx context.Context, expenseID string) (*entity.ActionSummary, error)
}

// TransactionManager runs fn inside a transaction carried by the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
