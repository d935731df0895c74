package core

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// PGPool is the subset of *pgxpool.Pool used by PGStore.
type PGPool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore stores transactions in PostgreSQL.
type PGStore struct {
	db PGPool
}

// NewPGStore wraps a connection pool.
func NewPGStore(db PGPool) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the transactions table if missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

var copyColumns = []string{
	"id", "ledger_id", "type", "amount", "tx_date",
	"category1", "category2", "payment_method1", "payment_method2",
	"description", "memo", "import_id", "created_at",
}

// InsertTransactions writes txs with the COPY protocol inside a single
// database transaction.
func (s *PGStore) InsertTransactions(ctx context.Context, ledgerID uuid.UUID, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([][]any, len(txs))
	for i, tx := range txs {
		row, err := copyRow(ledgerID, tx)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		rows[i] = row
	}

	return pgx.BeginFunc(ctx, s.db, func(dbtx pgx.Tx) error {
		n, err := dbtx.CopyFrom(ctx, pgx.Identifier{"ledger_transactions"}, copyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy transactions: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy transactions: wrote %d of %d rows", n, len(rows))
		}
		return nil
	})
}

func copyRow(ledgerID uuid.UUID, tx Transaction) ([]any, error) {
	var amount pgtype.Numeric
	if err := amount.Scan(tx.Amount.String()); err != nil {
		return nil, fmt.Errorf("amount %s: %w", tx.Amount, err)
	}

	importID := pgtype.UUID{}
	if tx.ImportID != uuid.Nil {
		importID = pgtype.UUID{Bytes: tx.ImportID, Valid: true}
	}

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return []any{
		pgtype.UUID{Bytes: tx.ID, Valid: true},
		pgtype.UUID{Bytes: ledgerID, Valid: true},
		string(tx.Type),
		amount,
		pgtype.Date{Time: tx.Date, Valid: true},
		tx.Category1,
		tx.Category2,
		tx.PaymentMethod1,
		tx.PaymentMethod2,
		tx.Description,
		tx.Memo,
		importID,
		pgtype.Timestamptz{Time: createdAt, Valid: true},
	}, nil
}

const listTransactionsSQL = `
SELECT id, ledger_id, type, amount::text, tx_date,
       category1, category2, payment_method1, payment_method2,
       description, memo, import_id, created_at
FROM ledger_transactions
WHERE ledger_id = $1
  AND ($2::date IS NULL OR tx_date >= $2)
  AND ($3::date IS NULL OR tx_date <= $3)
ORDER BY tx_date ASC, created_at ASC, id ASC`

// ListTransactions returns a ledger's transactions ordered by date.
func (s *PGStore) ListTransactions(ctx context.Context, ledgerID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, listTransactionsSQL,
		pgtype.UUID{Bytes: ledgerID, Valid: true},
		pgDate(filter.From),
		pgDate(filter.To),
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var (
			id, ledger, importID pgtype.UUID
			typ, amount          string
			date                 pgtype.Date
			createdAt            pgtype.Timestamptz
			tx                   Transaction
		)
		if err := rows.Scan(&id, &ledger, &typ, &amount, &date,
			&tx.Category1, &tx.Category2, &tx.PaymentMethod1, &tx.PaymentMethod2,
			&tx.Description, &tx.Memo, &importID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tx.ID = uuid.UUID(id.Bytes)
		tx.LedgerID = uuid.UUID(ledger.Bytes)
		tx.Type = TransactionType(typ)
		tx.Date = date.Time
		tx.CreatedAt = createdAt.Time
		if importID.Valid {
			tx.ImportID = uuid.UUID(importID.Bytes)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", tx.ID, amount, err)
		}

		result = append(result, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

func pgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
