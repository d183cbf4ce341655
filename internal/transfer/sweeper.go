package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/tahweel-pay/tahweel_pay/internal/ttlstore"
)

// Sweeper evicts expired sessions and pending transfers on a fixed cadence,
// independent of the reconciliation poll.
type Sweeper struct {
	sessions ttlstore.Store[Session]
	pending  ttlstore.Store[PendingTransfer]
	logger   *slog.Logger
}

// NewSweeper constructs a sweeper over the two TTL stores.
func NewSweeper(sessions ttlstore.Store[Session], pending ttlstore.Store[PendingTransfer], logger *slog.Logger) *Sweeper {
	return &Sweeper{sessions: sessions, pending: pending, logger: logger}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(time.Now())
		}
	}
}

// RunOnce sweeps both stores as of now.
func (s *Sweeper) RunOnce(now time.Time) {
	expiredSessions := s.sessions.SweepExpired(now)
	expiredPending := s.pending.SweepExpired(now)
	if expiredSessions > 0 || expiredPending > 0 {
		s.logger.Info("swept expired entries",
			"sessions", expiredSessions,
			"pending_transfers", expiredPending,
		)
	}
}
