package port

import (
	"io"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// ActionLogExporter renders action log entries into a downloadable document
type ActionLogExporter interface {
	Export(w io.Writer, expenseID string, entries []*entity.ActionLogEntry) error
	ContentType() string
	FileExtension() string
}
