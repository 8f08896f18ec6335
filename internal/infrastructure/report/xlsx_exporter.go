// Package report renders the action log into downloadable documents.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// SheetName is the worksheet holding the action log
const SheetName = "Actions"

var headers = []interface{}{
	"Time (UTC)", "Legacy ID", "Action", "Outcome", "Error", "Processor fee", "Currency", "Manual", "Correlation ID",
}

// XLSXExporter implements port.ActionLogExporter with an Excel workbook
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new Excel exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// ContentType is the MIME type of the produced document
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension is the file extension of the produced document
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// Export writes one row per entry below a header row
func (e *XLSXExporter) Export(w io.Writer, expenseID string, entries []*entity.ActionLogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}

	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rowOf(entry)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 40); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Action log exported",
		zap.String("expense_id", expenseID),
		zap.Int("rows", len(entries)))
	return nil
}

func rowOf(entry *entity.ActionLogEntry) []interface{} {
	fee := ""
	if entry.ProcessorFee != nil {
		fee = entity.MinorToMajor(*entry.ProcessorFee, entry.Currency).
			StringFixed(entity.CurrencyPrecision(entry.Currency))
	}
	manual := "no"
	if entry.IsManual {
		manual = "yes"
	}
	return []interface{}{
		entry.CreatedAt.UTC().Format(time.DateTime),
		entry.LegacyID,
		entry.Action,
		entry.Outcome,
		entry.ErrorMessage,
		fee,
		entry.Currency,
		manual,
		entry.CorrelationID,
	}
}

var _ port.ActionLogExporter = (*XLSXExporter)(nil)
