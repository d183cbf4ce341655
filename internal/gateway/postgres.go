package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed channel repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureEnabled upserts an enabled channel row for phone.
func (r *PostgresRepository) EnsureEnabled(ctx context.Context, phone string) (Channel, error) {
	const query = `
        INSERT INTO receiving_channels (id, phone, enabled, created_at, enabled_at)
        VALUES ($1, $2, TRUE, now(), now())
        ON CONFLICT (phone) DO UPDATE SET enabled = TRUE, enabled_at = now()
        RETURNING id, phone, enabled, created_at`
	row := r.db.QueryRow(ctx, query, uuid.New(), phone)

	var (
		id        uuid.UUID
		createdAt time.Time
		ch        Channel
	)
	if err := row.Scan(&id, &ch.Phone, &ch.Enabled, &createdAt); err != nil {
		return Channel{}, err
	}
	ch.ID = id.String()
	ch.CreatedAt = createdAt.UTC()
	return ch, nil
}

// ActivePhone returns the most recently enabled channel's phone.
func (r *PostgresRepository) ActivePhone(ctx context.Context) (string, error) {
	const query = `SELECT phone FROM receiving_channels WHERE enabled ORDER BY enabled_at DESC LIMIT 1`
	var phone string
	if err := r.db.QueryRow(ctx, query).Scan(&phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoActiveChannel
		}
		return "", err
	}
	return phone, nil
}
