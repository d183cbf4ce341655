package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
	"github.com/tahweel-pay/tahweel_pay/internal/metrics"
	"github.com/tahweel-pay/tahweel_pay/internal/notification"
	"github.com/tahweel-pay/tahweel_pay/internal/transfer"
	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

const defaultPageSize = 50

// Stats summarizes one reconciliation pass.
type Stats struct {
	Total    int // records fetched
	Checked  int // records examined for the first time
	Credited int // records that produced a wallet credit
}

// Deps aggregates the collaborators the poller needs.
type Deps struct {
	Carrier    carrier.Client
	Identity   *carrier.Identity
	Users      user.Repository
	Wallet     ledger.Ledger
	Processed  ProcessedStore
	Classifier Classifier
	Notifier   notification.Notifier
	Metrics    *metrics.Collector
	Logger     *slog.Logger
	PageSize   int
}

// Poller periodically scans the store account's message log and credits
// wallets for recognized inbound transfers. Ticks are single-flight: a tick
// that would overlap a running pass is skipped, never run concurrently.
type Poller struct {
	d  Deps
	mu sync.Mutex
}

// NewPoller constructs a reconciliation poller.
func NewPoller(d Deps) *Poller {
	if d.Classifier == nil {
		d.Classifier = NewKeywordClassifier(nil)
	}
	if d.PageSize <= 0 {
		d.PageSize = defaultPageSize
	}
	return &Poller{d: d}
}

// Start runs the poll loop until the context is cancelled. Pass failures are
// logged and swallowed; the loop never stops on its own.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.d.Logger.Info("reconciliation poller started", "interval", interval.String(), "page_size", p.d.PageSize)

	for {
		select {
		case <-ctx.Done():
			p.d.Logger.Info("reconciliation poller stopped")
			return
		case <-ticker.C:
			if !p.mu.TryLock() {
				p.d.Metrics.TickSkipped()
				p.d.Logger.Warn("skipping reconciliation tick, previous tick still running")
				continue
			}
			stats, err := p.runOnce(ctx)
			p.mu.Unlock()
			if err != nil {
				p.d.Logger.Error("reconciliation pass failed", "error", err)
				continue
			}
			if stats.Checked > 0 {
				p.d.Logger.Info("reconciliation pass complete",
					"total", stats.Total, "checked", stats.Checked, "credited", stats.Credited)
			}
		}
	}
}

// CheckNow runs one synchronous pass for operator use, waiting for any
// in-flight tick to finish first.
func (p *Poller) CheckNow(ctx context.Context) (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runOnce(ctx)
}

func (p *Poller) runOnce(ctx context.Context) (Stats, error) {
	cred, authenticated := p.d.Identity.Snapshot()
	if !authenticated {
		return Stats{}, nil
	}
	p.d.Metrics.TickRun()

	records, err := p.d.Carrier.FetchMessages(ctx, cred, 1, p.d.PageSize)
	if err != nil {
		if errors.Is(err, carrier.ErrUnauthorized) {
			p.d.Identity.Invalidate()
			p.d.Metrics.AuthFailure()
			p.d.Logger.Warn("store carrier token rejected, poller disabled until re-login")
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("fetch messages: %w", err)
	}
	p.d.Metrics.RecordsFetched(len(records))

	stats := Stats{Total: len(records)}
	for _, rec := range records {
		// A record with neither a vendor id nor a usable timestamp has no
		// stable dedupe key; crediting it could double-pay on the next poll.
		if rec.ID == "" && rec.SentAt.IsZero() {
			p.d.Metrics.RecordSkipped(metrics.SkipUnkeyed)
			p.d.Logger.Warn("message-log record has no dedupe key", "sender", rec.Sender)
			continue
		}
		key := recordKey(rec)

		seen, err := p.d.Processed.Seen(ctx, key)
		if err != nil {
			p.d.Logger.Error("processed-record lookup failed", "key", key, "error", err)
			continue
		}
		if seen {
			p.d.Metrics.RecordSkipped(metrics.SkipSeen)
			continue
		}
		stats.Checked++

		if p.reconcileRecord(ctx, rec) {
			stats.Credited++
		}

		// An examined record is only ever attempted once, whatever came of
		// the attempt.
		if err := p.d.Processed.Mark(ctx, key); err != nil {
			p.d.Logger.Error("marking record processed failed", "key", key, "error", err)
		}
	}

	return stats, nil
}

// reconcileRecord classifies and credits one record, returning whether a
// credit was posted. Ambiguous or unmatched records are skipped silently.
func (p *Poller) reconcileRecord(ctx context.Context, rec carrier.Message) bool {
	match, ok := p.d.Classifier.Classify(rec.Body)
	if !ok {
		p.d.Metrics.RecordSkipped(metrics.SkipUnclassified)
		return false
	}
	if match.AmountIQD < transfer.MinTransferIQD {
		p.d.Metrics.RecordSkipped(metrics.SkipBelowMin)
		return false
	}

	sender := rec.Sender
	if sender == "" {
		sender = match.SenderHint
	}
	candidates := PhoneCandidates(sender)
	if len(candidates) == 0 {
		p.d.Metrics.RecordSkipped(metrics.SkipNoMatch)
		return false
	}

	u, err := p.d.Users.FindByPhoneAny(ctx, candidates)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			p.d.Logger.Error("sender lookup failed", "sender", sender, "error", err)
		}
		p.d.Metrics.RecordSkipped(metrics.SkipNoMatch)
		return false
	}

	cents := ledger.IQDToCents(match.AmountIQD)
	if _, err := p.d.Wallet.Credit(ctx, u.ID, cents, ledger.KindReconcile, recordKey(rec)); err != nil {
		if errors.Is(err, ledger.ErrDuplicateCredit) {
			p.d.Metrics.RecordSkipped(metrics.SkipDuplicate)
			return false
		}
		p.d.Logger.Error("reconciled credit failed", "user", u.Username, "error", err)
		return false
	}

	p.d.Metrics.RecordCredited()
	p.d.Logger.Info("reconciled inbound transfer",
		"user", u.Username, "amount_iqd", match.AmountIQD, "sender", sender)
	if p.d.Notifier != nil {
		_ = p.d.Notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletCredit,
			Destination: u.Username,
			Body:        fmt.Sprintf("Your wallet was credited $%.2f", ledger.CentsToUSD(cents)),
		})
	}
	return true
}

// recordKey derives a stable dedupe key for a message-log record. The vendor
// id is preferred; the timestamp+sender fallback is collision-prone but the
// best available when the vendor omits ids.
func recordKey(rec carrier.Message) string {
	if rec.ID != "" {
		return rec.ID
	}
	return fmt.Sprintf("%d|%s", rec.SentAt.Unix(), rec.Sender)
}
