package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no user matched the lookup.
var ErrNotFound = errors.New("user not found")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	// FindByPhoneAny resolves the first user whose phone matches any of the
	// candidate forms, honoring the slice order as the precedence order.
	FindByPhoneAny(ctx context.Context, candidates []string) (User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, phone, pin_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`, userID, user.Username, user.Phone, user.PINHash, user.CreatedAt.UTC())
	return err
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	return r.findOne(ctx, `SELECT id, username, phone, pin_hash, created_at FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, `SELECT id, username, phone, pin_hash, created_at FROM users WHERE username = $1`, username)
}

// FindByPhoneAny tries each candidate phone form in order and returns the
// first match.
func (r *PostgresRepository) FindByPhoneAny(ctx context.Context, candidates []string) (User, error) {
	for _, phone := range candidates {
		u, err := r.findOne(ctx, `SELECT id, username, phone, pin_hash, created_at FROM users WHERE phone = $1`, phone)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}
	return User{}, ErrNotFound
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (User, error) {
	row := r.db.QueryRow(ctx, query, arg)
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Username, &user.Phone, &user.PINHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
