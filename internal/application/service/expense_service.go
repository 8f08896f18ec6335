package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/garyjia/expense-desk/internal/application/dispatcher"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/payment"
	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// ErrInvalidExpenseID is returned for an empty or malformed expense identifier
var ErrInvalidExpenseID = errors.New("invalid expense id")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ProcessInput is an operator request to run one process action
type ProcessInput struct {
	Action  string              `json:"action" binding:"required"`
	Payment *payment.Submission `json:"payment_params,omitempty"`
}

// ProcessResult is the outcome of a successful process action
type ProcessResult struct {
	Expense *entity.Expense `json:"expense"`
	View    dispatcher.View `json:"view"`
}

// ExpenseService exposes the process workflow of expenses loaded from the remote API
type ExpenseService interface {
	Actions(ctx context.Context, id string) (dispatcher.View, error)
	QuotePayment(ctx context.Context, id string, rawFee string) (payment.Confirmation, error)
	Process(ctx context.Context, id string, in ProcessInput) (*ProcessResult, error)
	Reload(ctx context.Context, id string) (dispatcher.View, error)
	History(ctx context.Context, id string, limit, offset int) ([]*entity.ActionLogEntry, error)
	Summary(ctx context.Context, id string) (*entity.ActionSummary, error)
	ExportHistory(ctx context.Context, id string, w io.Writer) (*ExportInfo, error)
}

// ExportInfo describes an exported document
type ExportInfo struct {
	FileName    string
	ContentType string
	Entries     int
}

type expenseServiceImpl struct {
	source   port.ExpenseSource
	logRepo  port.ActionLogRepository
	exporter port.ActionLogExporter
	deps     dispatcher.Deps
	logger   Logger

	mu       sync.Mutex
	sessions map[string]*dispatcher.ActionDispatcher
}

// NewExpenseService creates a new ExpenseService. deps is shared by every
// per-expense dispatcher the service creates.
func NewExpenseService(
	source port.ExpenseSource,
	logRepo port.ActionLogRepository,
	exporter port.ActionLogExporter,
	deps dispatcher.Deps,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		source:   source,
		logRepo:  logRepo,
		exporter: exporter,
		deps:     deps,
		logger:   logger,
		sessions: make(map[string]*dispatcher.ActionDispatcher),
	}
}

// ParseExpenseRef accepts either a public id or a numeric legacy id
func ParseExpenseRef(id string) (entity.ExpenseRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.ExpenseRef{}, ErrInvalidExpenseID
	}
	if legacy, err := strconv.ParseInt(id, 10, 64); err == nil {
		if legacy <= 0 {
			return entity.ExpenseRef{}, fmt.Errorf("%w: %s", ErrInvalidExpenseID, id)
		}
		return entity.ExpenseRef{LegacyID: legacy}, nil
	}
	return entity.ExpenseRef{ID: id}, nil
}

// Actions returns the process controls of the expense
func (s *expenseServiceImpl) Actions(ctx context.Context, id string) (dispatcher.View, error) {
	d, err := s.session(ctx, id)
	if err != nil {
		return dispatcher.View{}, err
	}
	return d.View(), nil
}

// QuotePayment updates the processor fee and returns the pay confirmation.
// An empty fee clears the fee. Invalid input keeps the previous fee, marks the
// field invalid and blocks PAY until it is corrected.
func (s *expenseServiceImpl) QuotePayment(ctx context.Context, id string, rawFee string) (payment.Confirmation, error) {
	d, err := s.session(ctx, id)
	if err != nil {
		return payment.Confirmation{}, err
	}
	return d.SetProcessorFee(rawFee)
}

// Process runs the requested action and returns the updated expense with its new controls
func (s *expenseServiceImpl) Process(ctx context.Context, id string, in ProcessInput) (*ProcessResult, error) {
	action, err := workflow.ParseAction(in.Action)
	if err != nil {
		return nil, err
	}

	d, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}

	before := d.Collective()
	updated, err := d.Trigger(ctx, action, in.Payment)
	if err != nil {
		s.logger.Error("Failed to process expense", "expense", id, "action", action, "error", err)
		return nil, err
	}
	if after := d.Collective(); after != before {
		s.shareCollective(d, after)
	}

	s.logger.Info("Expense processed", "expense", id, "action", action)
	if updated == nil {
		updated = d.Expense()
	}
	return &ProcessResult{Expense: updated, View: d.View()}, nil
}

// Reload fetches the expense and collective again and replaces the held copies
func (s *expenseServiceImpl) Reload(ctx context.Context, id string) (dispatcher.View, error) {
	ref, err := ParseExpenseRef(id)
	if err != nil {
		return dispatcher.View{}, err
	}

	s.mu.Lock()
	d, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return s.Actions(ctx, id)
	}

	expense, collective, err := s.source.FetchExpense(ctx, ref)
	if err != nil {
		return dispatcher.View{}, fmt.Errorf("fetch expense: %w", err)
	}
	if err := d.Refresh(expense, collective); err != nil {
		return dispatcher.View{}, err
	}
	return d.View(), nil
}

// History lists the recorded actions of the expense, newest first
func (s *expenseServiceImpl) History(ctx context.Context, id string, limit, offset int) ([]*entity.ActionLogEntry, error) {
	expenseID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.logRepo.ListByExpenseID(ctx, expenseID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list action log", "error", err, "expense_id", expenseID)
		return nil, fmt.Errorf("list action log: %w", err)
	}
	return entries, nil
}

// Summary returns the aggregated action log of the expense.
// An expense with no recorded action gets an empty summary.
func (s *expenseServiceImpl) Summary(ctx context.Context, id string) (*entity.ActionSummary, error) {
	expenseID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.logRepo.GetSummary(ctx, expenseID)
	if err != nil {
		s.logger.Error("Failed to get action summary", "error", err, "expense_id", expenseID)
		return nil, fmt.Errorf("get action summary: %w", err)
	}
	if summary == nil {
		summary = &entity.ActionSummary{ExpenseID: expenseID}
	}
	return summary, nil
}

// ExportHistory writes the whole action log of the expense with the configured exporter
func (s *expenseServiceImpl) ExportHistory(ctx context.Context, id string, w io.Writer) (*ExportInfo, error) {
	expenseID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.logRepo.ListByExpenseID(ctx, expenseID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list action log: %w", err)
	}
	if err := s.exporter.Export(w, expenseID, entries); err != nil {
		s.logger.Error("Failed to export action log", "error", err, "expense_id", expenseID)
		return nil, fmt.Errorf("export action log: %w", err)
	}

	s.logger.Info("Action log exported", "expense_id", expenseID, "entries", len(entries))
	return &ExportInfo{
		FileName:    "expense-" + expenseID + "-actions" + s.exporter.FileExtension(),
		ContentType: s.exporter.ContentType(),
		Entries:     len(entries),
	}, nil
}

// resolveID maps a public or legacy id to the public id the log is keyed by
func (s *expenseServiceImpl) resolveID(ctx context.Context, id string) (string, error) {
	ref, err := ParseExpenseRef(id)
	if err != nil {
		return "", err
	}
	if ref.ID != "" {
		return ref.ID, nil
	}
	d, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Expense().ID, nil
}

// session returns the dispatcher of the expense, loading it on first use.
// A dispatcher is registered under both the public and the legacy id.
func (s *expenseServiceImpl) session(ctx context.Context, id string) (*dispatcher.ActionDispatcher, error) {
	ref, err := ParseExpenseRef(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	d, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return d, nil
	}

	expense, collective, err := s.source.FetchExpense(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to fetch expense", "error", err, "expense", id)
		return nil, fmt.Errorf("fetch expense: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another request may have loaded it meanwhile
	if existing, ok := s.lookupLocked(id, expense); ok {
		s.sessions[id] = existing
		return existing, nil
	}

	d = dispatcher.New(expense, collective, s.deps)
	s.sessions[id] = d
	if expense.ID != "" {
		s.sessions[expense.ID] = d
	}
	if expense.LegacyID != 0 {
		s.sessions[strconv.FormatInt(expense.LegacyID, 10)] = d
	}

	s.logger.Info("Expense session created", "expense_id", expense.ID, "legacy_id", expense.LegacyID)
	return d, nil
}

// shareCollective hands a collective returned with an action to every other
// session paid from the same account, so their pay rules see the new balance
// and plan usage.
func (s *expenseServiceImpl) shareCollective(from *dispatcher.ActionDispatcher, collective *entity.Collective) {
	if collective == nil || collective.ID == "" {
		return
	}

	s.mu.Lock()
	seen := map[*dispatcher.ActionDispatcher]bool{from: true}
	others := make([]*dispatcher.ActionDispatcher, 0, len(s.sessions))
	for _, d := range s.sessions {
		if !seen[d] {
			seen[d] = true
			others = append(others, d)
		}
	}
	s.mu.Unlock()

	shared := 0
	for _, d := range others {
		if d.ShareCollective(collective) {
			shared++
		}
	}
	if shared > 0 {
		s.logger.Info("Collective shared with open sessions", "collective_id", collective.ID, "sessions", shared)
	}
}

func (s *expenseServiceImpl) lookupLocked(id string, expense *entity.Expense) (*dispatcher.ActionDispatcher, bool) {
	for _, key := range []string{id, expense.ID, strconv.FormatInt(expense.LegacyID, 10)} {
		if d, ok := s.sessions[key]; ok {
			return d, true
		}
	}
	return nil, false
}
