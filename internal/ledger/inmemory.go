package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
	credits  map[string]CreditResult
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]int64),
		credits:  make(map[string]CreditResult),
	}
}

func (l *inMemoryLedger) Credit(_ context.Context, userID string, amountCents int64, kind, idempotencyKey string) (CreditResult, error) {
	if amountCents <= 0 {
		return CreditResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	dedupeKey := kind + ":" + idempotencyKey
	if res, exists := l.credits[dedupeKey]; exists {
		return res, ErrDuplicateCredit
	}

	balance := l.balances[userID] + amountCents
	l.balances[userID] = balance

	res := CreditResult{TransactionID: uuid.NewString(), Balance: balance}
	l.credits[dedupeKey] = res
	return res, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[userID], nil
}
