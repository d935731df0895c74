// Package core provides the ledger import/export logic.
// This package has no HTTP dependencies and can be used by any frontend.
package core

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TransactionType distinguishes income from expense entries.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction is one decoded ledger entry.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	LedgerID       uuid.UUID       `json:"ledgerId"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Date           time.Time       `json:"date"`
	Category1      string          `json:"category1,omitempty"`
	Category2      string          `json:"category2,omitempty"`
	PaymentMethod1 string          `json:"paymentMethod1,omitempty"`
	PaymentMethod2 string          `json:"paymentMethod2,omitempty"`
	Description    string          `json:"description,omitempty"`
	Memo           string          `json:"memo,omitempty"`
	ImportID       uuid.UUID       `json:"importId"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ExportFormat selects the writer used for an export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a user-supplied format. Empty means CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// FailedRow describes a row that could not be decoded.
type FailedRow struct {
	LineNumber int               `json:"lineNumber"`
	Field      string            `json:"field,omitempty"`
	Reason     string            `json:"reason"`
	Data       map[string]string `json:"data"`
}

// ImportRequest describes a file to import into a ledger.
type ImportRequest struct {
	LedgerID   uuid.UUID
	FileName   string
	Size       int64 // 0 when unknown
	Reader     io.Reader
	ImportedBy string
}

// ImportResult is the outcome of an import or a preview.
type ImportResult struct {
	ImportID     string          `json:"importId"`
	LedgerID     string          `json:"ledgerId"`
	FileName     string          `json:"fileName"`
	Sheet        string          `json:"sheet,omitempty"`
	TotalRows    int             `json:"totalRows"`
	Imported     int             `json:"imported"`
	IncomeTotal  decimal.Decimal `json:"incomeTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Collisions   []Collision     `json:"collisions,omitempty"`
	FailedRows   []FailedRow     `json:"failedRows,omitempty"`
	Rows         []Row           `json:"rows,omitempty"` // preview only
	Duration     time.Duration   `json:"-"`
	Error        string          `json:"error,omitempty"`
}

// ExportRequest selects the transactions and format of an export.
type ExportRequest struct {
	LedgerID uuid.UUID
	Format   ExportFormat
	From     time.Time // zero = unbounded
	To       time.Time // zero = unbounded, inclusive
}

// ExportFile is a rendered export ready to be sent to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ListFilter restricts ListTransactions to a date range.
type ListFilter struct {
	From time.Time
	To   time.Time
}
