package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
)

// ActionNotifier posts action outcomes to an operators chat
type ActionNotifier struct {
	sender    port.MessageSender
	receiveID string
	logger    Logger
}

// NewActionNotifier creates a notifier posting to receiveID
func NewActionNotifier(sender port.MessageSender, receiveID string, logger Logger) *ActionNotifier {
	return &ActionNotifier{sender: sender, receiveID: receiveID, logger: logger}
}

// Handle is an event handler for action outcome events
func (n *ActionNotifier) Handle(ctx context.Context, evt *event.Event) error {
	msg := FormatOutcome(evt)
	if err := n.sender.SendText(ctx, n.receiveID, msg); err != nil {
		n.logger.Error("Failed to send action notification", "error", err, "expense_id", evt.ExpenseID)
		return fmt.Errorf("send notification: %w", err)
	}

	n.logger.Info("Action notification sent", "expense_id", evt.ExpenseID, "action", evt.Action)
	return nil
}

// FormatOutcome renders an action outcome event as a chat message
func FormatOutcome(evt *event.Event) string {
	var b strings.Builder

	ref := evt.ExpenseID
	if evt.LegacyID != 0 {
		ref = fmt.Sprintf("#%d", evt.LegacyID)
	}

	if evt.Type == event.TypeActionFailed {
		fmt.Fprintf(&b, "Expense %s: %s failed", ref, evt.Action)
		if msg := evt.GetPayloadString(event.KeyError); msg != "" {
			fmt.Fprintf(&b, "\nError: %s", msg)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Expense %s: %s succeeded", ref, evt.Action)
	if status := evt.GetPayloadString(event.KeyStatus); status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", status)
	}
	if fee, ok := evt.GetPayloadInt(event.KeyProcessorFee); ok {
		currency := evt.GetPayloadString(event.KeyCurrency)
		fmt.Fprintf(&b, "\nProcessor fee: %s %s", entity.MinorToMajor(fee, currency).StringFixed(entity.CurrencyPrecision(currency)), currency)
	}
	if evt.GetPayloadBool(event.KeyIsManual) {
		b.WriteString("\nMarked as paid manually")
	}
	return b.String()
}
