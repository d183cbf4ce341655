package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
	"github.com/tahweel-pay/tahweel_pay/internal/logging"
	"github.com/tahweel-pay/tahweel_pay/internal/metrics"
	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

type fetchOnlyCarrier struct {
	messages []carrier.Message
	err      error
	calls    int
}

func (f *fetchOnlyCarrier) FetchMessages(_ context.Context, _ carrier.Credential, _, _ int) ([]carrier.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func (f *fetchOnlyCarrier) Login(context.Context, string) (carrier.LoginResult, error) {
	return carrier.LoginResult{}, nil
}
func (f *fetchOnlyCarrier) VerifyOTP(context.Context, carrier.Credential, string) (string, error) {
	return "", nil
}
func (f *fetchOnlyCarrier) InitiateTransfer(context.Context, carrier.Credential, string, int64) error {
	return nil
}
func (f *fetchOnlyCarrier) ConfirmTransfer(context.Context, carrier.Credential, string) error {
	return nil
}
func (f *fetchOnlyCarrier) ApplyVoucher(context.Context, carrier.Credential, string) (carrier.VoucherResult, error) {
	return carrier.VoucherResult{}, nil
}
func (f *fetchOnlyCarrier) Balance(context.Context, carrier.Credential) (int64, error) {
	return 0, nil
}

type pollerEnv struct {
	poller   *Poller
	stub     *fetchOnlyCarrier
	identity *carrier.Identity
	wallet   ledger.Ledger
	alice    user.User
}

func newPollerEnv(t *testing.T, messages []carrier.Message) *pollerEnv {
	t.Helper()

	stub := &fetchOnlyCarrier{messages: messages}
	identity := carrier.NewIdentity()
	identity.BeginLogin("07900000000", "dev-1", "cont-1")
	identity.Authenticate("tok-1")

	users := user.NewMemoryRepository()
	alice := user.User{ID: uuid.NewString(), Username: "alice", Phone: "07701234567", CreatedAt: time.Now().UTC()}
	if err := users.Create(context.Background(), alice); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	wallet := ledger.NewInMemory()
	poller := NewPoller(Deps{
		Carrier:   stub,
		Identity:  identity,
		Users:     users,
		Wallet:    wallet,
		Processed: NewMemoryProcessed(),
		Logger:    logging.Discard(),
	})

	return &pollerEnv{poller: poller, stub: stub, identity: identity, wallet: wallet, alice: alice}
}

func TestCheckNowCreditsMatchedRecordOnce(t *testing.T) {
	sent := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	env := newPollerEnv(t, []carrier.Message{
		{ID: "m1", Sender: "9647701234567", Body: "You received a transfer of 5000 IQD", SentAt: sent},
		{ID: "m2", Sender: "INFO", Body: "win a new phone today", SentAt: sent},
		{ID: "m3", Sender: "9647701234567", Body: "transfer of 100 IQD", SentAt: sent},
	})
	ctx := context.Background()

	stats, err := env.poller.CheckNow(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if stats.Total != 3 || stats.Checked != 3 || stats.Credited != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	balance, _ := env.wallet.Balance(ctx, env.alice.ID)
	if balance != 500 {
		t.Fatalf("expected alice to be credited 500 cents, got %d", balance)
	}

	// The same log page comes back on every poll; nothing is re-examined.
	stats, err = env.poller.CheckNow(ctx)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if stats.Checked != 0 || stats.Credited != 0 {
		t.Fatalf("expected all records skipped as seen, got %+v", stats)
	}
	balance, _ = env.wallet.Balance(ctx, env.alice.ID)
	if balance != 500 {
		t.Fatalf("expected balance unchanged, got %d", balance)
	}
}

func TestCheckNowUsesSenderHintWhenCounterpartyMissing(t *testing.T) {
	env := newPollerEnv(t, []carrier.Message{
		{ID: "m1", Sender: "", Body: "balance transfer: 9647701234567 sent you 1000", SentAt: time.Now()},
	})
	ctx := context.Background()

	stats, err := env.poller.CheckNow(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if stats.Credited != 1 {
		t.Fatalf("expected one credit, got %+v", stats)
	}
	balance, _ := env.wallet.Balance(ctx, env.alice.ID)
	if balance != 100 {
		t.Fatalf("expected 100 cents, got %d", balance)
	}
}

func TestCheckNowSkipsUnknownSender(t *testing.T) {
	env := newPollerEnv(t, []carrier.Message{
		{ID: "m1", Sender: "9647809999999", Body: "transfer of 5000", SentAt: time.Now()},
	})

	stats, err := env.poller.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if stats.Credited != 0 {
		t.Fatalf("unknown sender must not be credited: %+v", stats)
	}
}

func TestUnkeyedRecordNeverCredited(t *testing.T) {
	env := newPollerEnv(t, []carrier.Message{
		{Sender: "9647701234567", Body: "You received a transfer of 5000 IQD"},
	})
	ctx := context.Background()

	stats, err := env.poller.CheckNow(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if stats.Checked != 0 || stats.Credited != 0 {
		t.Fatalf("a record without id or timestamp must not be examined, got %+v", stats)
	}
	balance, _ := env.wallet.Balance(ctx, env.alice.ID)
	if balance != 0 {
		t.Fatalf("expected no credit, got %d", balance)
	}
}

func TestUnauthorizedFetchInvalidatesIdentity(t *testing.T) {
	env := newPollerEnv(t, nil)
	env.stub.err = carrier.ErrUnauthorized

	stats, err := env.poller.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("an auth failure is handled, not returned: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, authenticated := env.identity.Snapshot(); authenticated {
		t.Fatalf("expected identity to be invalidated")
	}

	// Subsequent passes are no-ops until an operator logs back in.
	env.stub.err = nil
	env.stub.calls = 0
	if _, err := env.poller.CheckNow(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if env.stub.calls != 0 {
		t.Fatalf("deauthenticated poller must not call the carrier")
	}
}

// parkedCarrier blocks inside FetchMessages until released, signalling each
// entry, so tests can hold a reconciliation pass open.
type parkedCarrier struct {
	fetchOnlyCarrier
	entered chan struct{}
	release chan struct{}
}

func (p *parkedCarrier) FetchMessages(context.Context, carrier.Credential, int, int) ([]carrier.Message, error) {
	p.entered <- struct{}{}
	<-p.release
	return nil, nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestStartSkipsTicksWhilePassInFlight(t *testing.T) {
	stub := &parkedCarrier{entered: make(chan struct{}, 2), release: make(chan struct{})}
	identity := carrier.NewIdentity()
	identity.BeginLogin("07900000000", "dev-1", "cont-1")
	identity.Authenticate("tok-1")

	registry := prometheus.NewRegistry()
	poller := NewPoller(Deps{
		Carrier:   stub,
		Identity:  identity,
		Users:     user.NewMemoryRepository(),
		Wallet:    ledger.NewInMemory(),
		Processed: NewMemoryProcessed(),
		Metrics:   metrics.NewCollector(registry),
		Logger:    logging.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = poller.CheckNow(ctx)
	}()
	<-stub.entered // the operator pass is now parked inside the carrier call

	go poller.Start(ctx, 2*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for counterValue(t, registry, "tahweel_reconcile_ticks_skipped_total") == 0 {
		select {
		case <-deadline:
			t.Fatalf("no tick was skipped while a pass was in flight")
		case <-time.After(2 * time.Millisecond):
		}
	}

	// Every tick fired during the parked pass must have been dropped before
	// reaching the carrier.
	select {
	case <-stub.entered:
		t.Fatalf("an overlapping tick reached the carrier")
	default:
	}

	cancel()
	close(stub.release)
	<-done
}

func TestPollerIdleWithoutIdentity(t *testing.T) {
	stub := &fetchOnlyCarrier{}
	poller := NewPoller(Deps{
		Carrier:   stub,
		Identity:  carrier.NewIdentity(),
		Users:     user.NewMemoryRepository(),
		Wallet:    ledger.NewInMemory(),
		Processed: NewMemoryProcessed(),
		Logger:    logging.Discard(),
	})

	stats, err := poller.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if stats.Total != 0 || stub.calls != 0 {
		t.Fatalf("expected an idle no-op, got %+v calls=%d", stats, stub.calls)
	}
}
