// Package admin exposes the store-owner operations: connecting the store's
// own carrier account and operating the reconciliation poller.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/gateway"
	"github.com/tahweel-pay/tahweel_pay/internal/reconcile"
	"github.com/tahweel-pay/tahweel_pay/internal/transfer"
)

// Service manages the store carrier identity.
type Service struct {
	client   carrier.Client
	identity *carrier.Identity
	channels gateway.Repository
	poller   *reconcile.Poller
	logger   *slog.Logger
}

// NewService constructs the admin service.
func NewService(client carrier.Client, identity *carrier.Identity, channels gateway.Repository, poller *reconcile.Poller, logger *slog.Logger) *Service {
	return &Service{client: client, identity: identity, channels: channels, poller: poller, logger: logger}
}

// Status reports whether the store account is connected and on which phone.
type Status struct {
	Authenticated bool
	Phone         string
}

// Status returns the identity state.
func (s *Service) Status() Status {
	_, authenticated := s.identity.Snapshot()
	return Status{Authenticated: authenticated, Phone: s.identity.Phone()}
}

// Login starts an OTP login for the store account.
func (s *Service) Login(ctx context.Context, phone string) (string, error) {
	if !transfer.ValidPhone(phone) {
		return "", transfer.ErrInvalidPhone
	}

	res, err := s.client.Login(ctx, phone)
	if err != nil {
		return "", err
	}

	s.identity.BeginLogin(phone, uuid.NewString(), res.ContinuationID)
	return res.Message, nil
}

// Verify completes the store login. On first success it makes the account's
// phone an enabled receiving channel, so transfers start flowing to it.
func (s *Service) Verify(ctx context.Context, otp string) error {
	cred, ok := s.identity.Pending()
	if !ok {
		return fmt.Errorf("no login in progress")
	}

	token, err := s.client.VerifyOTP(ctx, cred, otp)
	if err != nil {
		return err
	}

	authenticated := s.identity.Authenticate(token)
	if _, err := s.channels.EnsureEnabled(ctx, authenticated.Phone); err != nil {
		return fmt.Errorf("enable receiving channel: %w", err)
	}

	s.logger.Info("store carrier account connected", "phone", authenticated.Phone)
	return nil
}

// Logout disconnects the store account.
func (s *Service) Logout() {
	s.identity.Logout()
	s.logger.Info("store carrier account disconnected")
}

// CheckRecords runs one synchronous reconciliation pass.
func (s *Service) CheckRecords(ctx context.Context) (reconcile.Stats, error) {
	return s.poller.CheckNow(ctx)
}

// Balance returns the store account's carrier balance in IQD.
func (s *Service) Balance(ctx context.Context) (int64, error) {
	cred, authenticated := s.identity.Snapshot()
	if !authenticated {
		return 0, transfer.ErrStoreNotConnected
	}
	balance, err := s.client.Balance(ctx, cred)
	if err != nil {
		return 0, err
	}
	return balance, nil
}
