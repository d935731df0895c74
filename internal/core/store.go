package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransactionStore persists ledger transactions.
type TransactionStore interface {
	// InsertTransactions stores all txs or none of them.
	InsertTransactions(ctx context.Context, ledgerID uuid.UUID, txs []Transaction) error
	// ListTransactions returns a ledger's transactions ordered by date.
	ListTransactions(ctx context.Context, ledgerID uuid.UUID, filter ListFilter) ([]Transaction, error)
}

// MemoryStore keeps transactions in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	ledger map[uuid.UUID][]Transaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledger: make(map[uuid.UUID][]Transaction)}
}

// InsertTransactions appends txs to the ledger.
func (s *MemoryStore) InsertTransactions(ctx context.Context, ledgerID uuid.UUID, txs []Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		tx.LedgerID = ledgerID
		s.ledger[ledgerID] = append(s.ledger[ledgerID], tx)
	}
	return nil
}

// ListTransactions returns copies of the matching transactions.
func (s *MemoryStore) ListTransactions(ctx context.Context, ledgerID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Transaction, 0, len(s.ledger[ledgerID]))
	for _, tx := range s.ledger[ledgerID] {
		if filter.matches(tx.Date) {
			result = append(result, tx)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (f ListFilter) matches(d time.Time) bool {
	if !f.From.IsZero() && d.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && d.After(f.To) {
		return false
	}
	return true
}
