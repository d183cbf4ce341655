package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists wallet balances and transaction history in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Credit atomically increases the user's balance and appends a transaction
// row. The (kind, idempotency_key) pair is unique; a repeat returns the
// original result with ErrDuplicateCredit.
func (l *PostgresLedger) Credit(ctx context.Context, userID string, amountCents int64, kind, idempotencyKey string) (CreditResult, error) {
	if amountCents <= 0 {
		return CreditResult{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CreditResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	const existingQuery = `SELECT id FROM wallet_transactions WHERE kind = $1 AND idempotency_key = $2`
	var existingID uuid.UUID
	if err := tx.QueryRow(ctx, existingQuery, kind, idempotencyKey).Scan(&existingID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return CreditResult{}, err
		}
	} else {
		balance, err := balanceForUpdate(ctx, tx, userID)
		if err != nil {
			return CreditResult{}, err
		}
		return CreditResult{TransactionID: existingID.String(), Balance: balance}, ErrDuplicateCredit
	}

	const upsertBalance = `
        INSERT INTO wallets (user_id, balance_cents) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET balance_cents = wallets.balance_cents + $2
        RETURNING balance_cents`
	var balance int64
	if err := tx.QueryRow(ctx, upsertBalance, userID, amountCents).Scan(&balance); err != nil {
		return CreditResult{}, err
	}

	txID := uuid.New()
	const insertTx = `
        INSERT INTO wallet_transactions (id, user_id, amount_cents, kind, idempotency_key, created_at)
        VALUES ($1, $2, $3, $4, $5, now())`
	if _, err := tx.Exec(ctx, insertTx, txID, userID, amountCents, kind, idempotencyKey); err != nil {
		return CreditResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CreditResult{}, err
	}

	return CreditResult{TransactionID: txID.String(), Balance: balance}, nil
}

// Balance returns the wallet balance for the user, zero if no wallet row exists.
func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT balance_cents FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func balanceForUpdate(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance_cents FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}
