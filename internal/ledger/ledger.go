package ledger

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateCredit indicates the provided idempotency key was already
	// credited and the operation should be treated as idempotent.
	ErrDuplicateCredit = errors.New("duplicate credit")

	// ErrInvalidAmount occurs when a posting is requested for a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Credit kinds recorded on wallet transactions.
const (
	KindTransferConfirm = "transfer_confirm"
	KindVoucher         = "voucher"
	KindReconcile       = "reconcile"
)

// CreditResult captures the outcome of a wallet credit.
type CreditResult struct {
	TransactionID string
	Balance       int64
}

// Ledger is the wallet balance and transaction-history backend. Credits are
// atomic and idempotency-keyed: every externally sourced credit event must
// increase the balance and append a transaction exactly once, no matter how
// many times the caller retries with the same key.
type Ledger interface {
	Credit(ctx context.Context, userID string, amountCents int64, kind, idempotencyKey string) (CreditResult, error)
	Balance(ctx context.Context, userID string) (int64, error)
}
