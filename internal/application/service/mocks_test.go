package service

import (
	"context"
	"io"
	"sync"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

type mockSource struct {
	mu    sync.Mutex
	calls []entity.ExpenseRef
	fetch func(ctx context.Context, ref entity.ExpenseRef) (*entity.Expense, *entity.Collective, error)
}

func (m *mockSource) FetchExpense(ctx context.Context, ref entity.ExpenseRef) (*entity.Expense, *entity.Collective, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ref)
	m.mu.Unlock()
	return m.fetch(ctx, ref)
}

func (m *mockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockProcessor struct {
	mu         sync.Mutex
	calls      int
	collective *entity.Collective // returned with every successful result
	process    func(ctx context.Context, req port.ProcessRequest) (*entity.Expense, error)
}

func (m *mockProcessor) ProcessExpense(ctx context.Context, req port.ProcessRequest) (*entity.Expense, *entity.Collective, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	expense, err := m.process(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return expense, m.collective, nil
}

func (m *mockProcessor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockActionLogRepo struct {
	entries    []*entity.ActionLogEntry
	summaries  map[string]entity.ActionSummary
	createErr  error
	upsertErr  error
	listErr    error
	summaryErr error
	lastLimit  int
}

func (m *mockActionLogRepo) Create(ctx context.Context, entry *entity.ActionLogEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActionLogRepo) ListByExpenseID(ctx context.Context, expenseID string, limit, offset int) ([]*entity.ActionLogEntry, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*entity.ActionLogEntry
	for _, e := range m.entries {
		if e.ExpenseID == expenseID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockActionLogRepo) UpsertSummary(ctx context.Context, entry *entity.ActionLogEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.summaries == nil {
		m.summaries = make(map[string]entity.ActionSummary)
	}
	summary := m.summaries[entry.ExpenseID]
	summary.ExpenseID = entry.ExpenseID
	summary.LegacyID = entry.LegacyID
	summary.LastAction = entry.Action
	summary.LastOutcome = entry.Outcome
	summary.LastError = entry.ErrorMessage
	summary.Attempts++
	if entry.Outcome == entity.OutcomeFailed {
		summary.Failures++
	}
	summary.UpdatedAt = entry.CreatedAt
	m.summaries[entry.ExpenseID] = summary
	return nil
}

func (m *mockActionLogRepo) GetSummary(ctx context.Context, expenseID string) (*entity.ActionSummary, error) {
	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	summary, ok := m.summaries[expenseID]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

// mockTxManager undoes the writes fn made to repo when fn fails
type mockTxManager struct {
	repo      *mockActionLogRepo
	commits   int
	rollbacks int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	entries := len(m.repo.entries)
	summaries := make(map[string]entity.ActionSummary, len(m.repo.summaries))
	for k, v := range m.repo.summaries {
		summaries[k] = v
	}

	if err := fn(ctx); err != nil {
		m.repo.entries = m.repo.entries[:entries]
		m.repo.summaries = summaries
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

type mockExporter struct {
	exportedID string
	count      int
}

func (m *mockExporter) Export(w io.Writer, expenseID string, entries []*entity.ActionLogEntry) error {
	m.exportedID = expenseID
	m.count = len(entries)
	_, err := io.WriteString(w, "exported")
	return err
}

func (m *mockExporter) ContentType() string   { return "text/plain" }
func (m *mockExporter) FileExtension() string { return ".txt" }

type mockSender struct {
	receiveID string
	content   string
	err       error
}

func (m *mockSender) SendText(ctx context.Context, receiveID string, content string) error {
	m.receiveID = receiveID
	m.content = content
	return m.err
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
