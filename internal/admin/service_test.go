package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/gateway"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
	"github.com/tahweel-pay/tahweel_pay/internal/logging"
	"github.com/tahweel-pay/tahweel_pay/internal/reconcile"
	"github.com/tahweel-pay/tahweel_pay/internal/transfer"
	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

type stubClient struct {
	loginErr  error
	verifyErr error
	balance   int64
}

func (s *stubClient) Login(context.Context, string) (carrier.LoginResult, error) {
	if s.loginErr != nil {
		return carrier.LoginResult{}, s.loginErr
	}
	return carrier.LoginResult{ContinuationID: "cont-1", Message: "code sent"}, nil
}

func (s *stubClient) VerifyOTP(context.Context, carrier.Credential, string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return "tok-1", nil
}

func (s *stubClient) InitiateTransfer(context.Context, carrier.Credential, string, int64) error {
	return nil
}
func (s *stubClient) ConfirmTransfer(context.Context, carrier.Credential, string) error { return nil }
func (s *stubClient) ApplyVoucher(context.Context, carrier.Credential, string) (carrier.VoucherResult, error) {
	return carrier.VoucherResult{}, nil
}
func (s *stubClient) FetchMessages(context.Context, carrier.Credential, int, int) ([]carrier.Message, error) {
	return nil, nil
}
func (s *stubClient) Balance(context.Context, carrier.Credential) (int64, error) {
	return s.balance, nil
}

func newAdminService(stub *stubClient) (*Service, *carrier.Identity, gateway.Repository) {
	identity := carrier.NewIdentity()
	channels := gateway.NewMemoryRepository()
	poller := reconcile.NewPoller(reconcile.Deps{
		Carrier:   stub,
		Identity:  identity,
		Users:     user.NewMemoryRepository(),
		Wallet:    ledger.NewInMemory(),
		Processed: reconcile.NewMemoryProcessed(),
		Logger:    logging.Discard(),
	})
	svc := NewService(stub, identity, channels, poller, logging.Discard())
	return svc, identity, channels
}

func TestConnectFlow(t *testing.T) {
	stub := &stubClient{}
	svc, _, channels := newAdminService(stub)
	ctx := context.Background()

	if st := svc.Status(); st.Authenticated {
		t.Fatalf("fresh identity must not be authenticated")
	}

	if _, err := svc.Login(ctx, "07901234567"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := svc.Verify(ctx, "123456"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	st := svc.Status()
	if !st.Authenticated || st.Phone != "07901234567" {
		t.Fatalf("unexpected status: %+v", st)
	}

	// The connected phone becomes the receiving channel.
	phone, err := channels.ActivePhone(ctx)
	if err != nil || phone != "07901234567" {
		t.Fatalf("expected active channel 07901234567, got %q err=%v", phone, err)
	}

	svc.Logout()
	if st := svc.Status(); st.Authenticated || st.Phone != "" {
		t.Fatalf("expected a clean identity after logout, got %+v", st)
	}
}

func TestLoginRejectsMalformedPhone(t *testing.T) {
	svc, _, _ := newAdminService(&stubClient{})

	if _, err := svc.Login(context.Background(), "12345"); !errors.Is(err, transfer.ErrInvalidPhone) {
		t.Fatalf("expected invalid phone, got %v", err)
	}
}

func TestVerifyWithoutLogin(t *testing.T) {
	svc, _, _ := newAdminService(&stubClient{})

	if err := svc.Verify(context.Background(), "123456"); err == nil {
		t.Fatalf("expected an error without a login in progress")
	}
}

func TestVerifyCarrierRejectionLeavesPending(t *testing.T) {
	stub := &stubClient{}
	svc, identity, _ := newAdminService(stub)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "07901234567"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	stub.verifyErr = &carrier.RejectedError{Message: "wrong code"}
	if err := svc.Verify(ctx, "000000"); !carrier.IsRejected(err) {
		t.Fatalf("expected vendor rejection, got %v", err)
	}
	if _, ok := identity.Pending(); !ok {
		t.Fatalf("a failed verify must keep the pending login for retry")
	}

	stub.verifyErr = nil
	if err := svc.Verify(ctx, "123456"); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
}

func TestBalanceRequiresConnection(t *testing.T) {
	stub := &stubClient{balance: 12500}
	svc, _, _ := newAdminService(stub)
	ctx := context.Background()

	if _, err := svc.Balance(ctx); !errors.Is(err, transfer.ErrStoreNotConnected) {
		t.Fatalf("expected store not connected, got %v", err)
	}

	if _, err := svc.Login(ctx, "07901234567"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := svc.Verify(ctx, "123456"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	balance, err := svc.Balance(ctx)
	if err != nil || balance != 12500 {
		t.Fatalf("expected balance 12500, got %d err=%v", balance, err)
	}
}

func TestCheckRecordsIdleWithoutConnection(t *testing.T) {
	svc, _, _ := newAdminService(&stubClient{})

	stats, err := svc.CheckRecords(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected an idle pass, got %+v", stats)
	}
}
