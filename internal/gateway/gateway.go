// Package gateway stores the receiving-channel configuration: which carrier
// numbers the store currently accepts balance transfers on.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrNoActiveChannel indicates no enabled receiving channel is configured.
var ErrNoActiveChannel = errors.New("no active receiving channel")

// Channel is one configured receiving number.
type Channel struct {
	ID        string
	Phone     string
	Enabled   bool
	CreatedAt time.Time
}

// Repository persists receiving channels.
type Repository interface {
	// EnsureEnabled makes phone an enabled receiving channel, creating the
	// record if absent and re-enabling it if disabled. Idempotent.
	EnsureEnabled(ctx context.Context, phone string) (Channel, error)
	// ActivePhone returns the phone of an enabled channel, preferring the
	// most recently enabled one.
	ActivePhone(ctx context.Context) (string, error)
}
