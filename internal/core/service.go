package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledger/internal/logging"
)

// Recorder receives import/export measurements.
type Recorder interface {
	ObserveImport(outcome string, rows int, d time.Duration)
	ObserveExport(format ExportFormat, rows, bytes int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveImport(string, int, time.Duration) {}
func (nopRecorder) ObserveExport(ExportFormat, int, int)     {}

// ServiceConfig holds the knobs of a Service.
type ServiceConfig struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
	SheetName     string
	FilePrefix    string
}

// Service is the entry point for ledger imports and exports.
type Service struct {
	store    TransactionStore
	limiter  *ImportLimiter
	recorder Recorder
	cfg      ServiceConfig
	now      func() time.Time
}

// NewService creates a Service backed by store. rec may be nil.
func NewService(store TransactionStore, cfg ServiceConfig, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "ledger"
	}
	return &Service{
		store:    store,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder: rec,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Limiter exposes the import limiter for shutdown and status reporting.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Import parses req's file, decodes every row and stores the resulting
// transactions. Any undecodable row fails the whole import with
// ErrValidation; the returned result then lists the failed rows.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	start := s.now()
	importID := uuid.New()
	logger := logging.WithFields(ctx,
		"import_id", importID.String(),
		"ledger_id", req.LedgerID.String(),
		"file", req.FileName,
		"imported_by", req.ImportedBy,
	)

	result, txs, err := s.importRows(ctx, req, importID, logger)
	if result != nil {
		result.Duration = s.now().Sub(start)
	}
	if err != nil {
		s.recorder.ObserveImport(importOutcome(err), 0, s.now().Sub(start))
		logger.Warn("import failed", "error", err)
		if result != nil {
			result.Error = err.Error()
		}
		return result, err
	}

	if err := s.store.InsertTransactions(ctx, req.LedgerID, txs); err != nil {
		s.recorder.ObserveImport("error", 0, s.now().Sub(start))
		logger.Error("import insert failed", "error", err)
		result.Error = err.Error()
		return result, fmt.Errorf("store transactions: %w", err)
	}

	result.Imported = len(txs)
	s.recorder.ObserveImport("success", len(txs), result.Duration)
	logger.Info("import completed",
		"rows", len(txs),
		"income_total", result.IncomeTotal.String(),
		"expense_total", result.ExpenseTotal.String(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (s *Service) importRows(ctx context.Context, req ImportRequest, importID uuid.UUID, logger *slog.Logger) (*ImportResult, []Transaction, error) {
	if req.LedgerID == uuid.Nil {
		return nil, nil, errors.New("missing ledger id")
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	parsed, err := s.parse(ctx, req.FileName, req.Size, req.Reader)
	if err != nil {
		return nil, nil, err
	}
	if len(parsed.Collisions) > 0 {
		logger.Warn("column labels collide, keeping the last one", "collisions", parsed.Collisions)
	}

	result := newImportResult(importID, req.LedgerID, req.FileName, parsed)
	if len(parsed.Rows) == 0 {
		return result, nil, ErrNoRows
	}

	createdAt := s.now()
	txs := make([]Transaction, 0, len(parsed.Rows))
	for i, row := range parsed.Rows {
		tx, err := DecodeTransaction(row)
		if err != nil {
			result.FailedRows = append(result.FailedRows, failedRow(parsed.Lines[i], row, err))
			continue
		}
		tx.ID = uuid.New()
		tx.LedgerID = req.LedgerID
		tx.ImportID = importID
		tx.CreatedAt = createdAt
		result.addTotal(tx)
		txs = append(txs, tx)
	}

	if len(result.FailedRows) > 0 {
		return result, nil, fmt.Errorf("%w: %d of %d rows invalid", ErrValidation, len(result.FailedRows), len(parsed.Rows))
	}
	return result, txs, nil
}

// Preview parses and decodes a file without storing anything. Decoding
// failures are reported in the result, not as an error.
func (s *Service) Preview(ctx context.Context, fileName string, size int64, r io.Reader) (*ImportResult, error) {
	parsed, err := s.parse(ctx, fileName, size, r)
	if err != nil {
		return nil, err
	}

	result := newImportResult(uuid.Nil, uuid.Nil, fileName, parsed)
	result.ImportID = ""
	result.LedgerID = ""
	result.Rows = parsed.Rows
	for i, row := range parsed.Rows {
		tx, err := DecodeTransaction(row)
		if err != nil {
			result.FailedRows = append(result.FailedRows, failedRow(parsed.Lines[i], row, err))
			continue
		}
		result.addTotal(tx)
	}
	return result, nil
}

func (s *Service) parse(ctx context.Context, fileName string, size int64, r io.Reader) (*ParseResult, error) {
	if r == nil {
		return nil, &ReadError{Err: errors.New("no file provided")}
	}

	limit := s.cfg.MaxFileSize
	if limit > 0 {
		if size > limit {
			return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))
		}
		r = &limitedReader{r: r, remaining: limit}
	}
	return ParseFile(ctx, fileName, r)
}

// limitedReader fails with ErrFileTooLarge instead of truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}

func newImportResult(importID, ledgerID uuid.UUID, fileName string, parsed *ParseResult) *ImportResult {
	return &ImportResult{
		ImportID:     importID.String(),
		LedgerID:     ledgerID.String(),
		FileName:     fileName,
		Sheet:        parsed.Sheet,
		TotalRows:    len(parsed.Rows),
		IncomeTotal:  decimal.Zero,
		ExpenseTotal: decimal.Zero,
		Collisions:   parsed.Collisions,
	}
}

func (r *ImportResult) addTotal(tx Transaction) {
	switch tx.Type {
	case TypeIncome:
		r.IncomeTotal = r.IncomeTotal.Add(tx.Amount)
	case TypeExpense:
		r.ExpenseTotal = r.ExpenseTotal.Add(tx.Amount)
	}
}

func failedRow(line int, row Row, err error) FailedRow {
	fr := FailedRow{LineNumber: line, Reason: err.Error(), Data: row.Strings()}
	var fe *FieldError
	if errors.As(err, &fe) {
		fr.Field = fe.Field
	}
	return fr
}

func importOutcome(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrTooManyImports):
		return "rejected"
	default:
		return "error"
	}
}

// Export renders a ledger's transactions in the requested format.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	txs, err := s.store.ListTransactions(ctx, req.LedgerID, ListFilter{From: req.From, To: req.To})
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	rows := make([]Row, len(txs))
	for i, tx := range txs {
		rows[i] = TransactionRow(tx)
	}

	base := fmt.Sprintf("%s_%s", s.cfg.FilePrefix, s.now().Format("20060102_150405"))
	file, err := s.render(rows, DefaultFieldOrder, req.Format, base)
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveExport(req.Format, len(rows), len(file.Payload))
	logging.FromContext(ctx).Info("export completed",
		"ledger_id", req.LedgerID.String(),
		"format", string(req.Format),
		"rows", len(rows),
		"size", humanize.Bytes(uint64(len(file.Payload))),
	)
	return file, nil
}

// Template renders an empty import file whose header uses the localized
// column labels.
func (s *Service) Template(format ExportFormat) (*ExportFile, error) {
	labels := make([]string, len(DefaultFieldOrder))
	for i, field := range DefaultFieldOrder {
		labels[i] = LabelFor(field)
	}
	return s.render(nil, labels, format, s.cfg.FilePrefix+"_template")
}

func (s *Service) render(rows []Row, fieldOrder []string, format ExportFormat, base string) (*ExportFile, error) {
	switch format {
	case FormatCSV, "":
		var buf bytes.Buffer
		buf.WriteString(UTF8BOM)
		buf.WriteString(ToDelimitedText(rows, fieldOrder))
		return &ExportFile{
			FileName:    base + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Payload:     buf.Bytes(),
			Rows:        len(rows),
		}, nil

	case FormatXLSX:
		payload, err := ToSpreadsheet(rows, fieldOrder, s.cfg.SheetName)
		if err != nil {
			return nil, fmt.Errorf("render xlsx: %w", err)
		}
		return &ExportFile{
			FileName:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Payload:     payload,
			Rows:        len(rows),
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.TrimSpace(string(format)))
	}
}
