package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/gateway"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
	"github.com/tahweel-pay/tahweel_pay/internal/metrics"
	"github.com/tahweel-pay/tahweel_pay/internal/notification"
	"github.com/tahweel-pay/tahweel_pay/internal/ttlstore"
	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

// Deps aggregates the collaborators the transfer service needs.
type Deps struct {
	Sessions   ttlstore.Store[Session]
	Pending    ttlstore.Store[PendingTransfer]
	Carrier    carrier.Client
	Users      user.Repository
	Wallet     ledger.Ledger
	Channels   gateway.Repository
	Identity   *carrier.Identity
	Notifier   notification.Notifier
	Metrics    *metrics.Collector
	Logger     *slog.Logger
	StorePhone string // fallback receiving number
}

// Service drives the four-step customer transfer flow, the pending-transfer
// registry, and voucher redemption.
type Service struct {
	d Deps
}

// NewService constructs a transfer service.
func NewService(d Deps) *Service {
	return &Service{d: d}
}

// LoginResult is the outcome of starting a transfer flow.
type LoginResult struct {
	SessionID string
	Message   string
}

// Login validates the customer's phone, starts a carrier login, and creates
// a new session at the logged-in step.
func (s *Service) Login(ctx context.Context, phone, ownerUserID string) (LoginResult, error) {
	if !ValidPhone(phone) {
		return LoginResult{}, ErrInvalidPhone
	}
	if _, err := s.d.Users.FindByID(ctx, ownerUserID); err != nil {
		return LoginResult{}, fmt.Errorf("owner: %w", err)
	}

	res, err := s.d.Carrier.Login(ctx, phone)
	if err != nil {
		return LoginResult{}, err
	}

	sess := Session{
		ID:             uuid.NewString(),
		Phone:          phone,
		DeviceID:       uuid.NewString(),
		ContinuationID: res.ContinuationID,
		OwnerUserID:    ownerUserID,
		Step:           StepLoggedIn,
		CreatedAt:      time.Now().UTC(),
	}
	s.d.Sessions.Put(sess.ID, sess)

	return LoginResult{SessionID: sess.ID, Message: res.Message}, nil
}

// VerifyOTP exchanges the login OTP for an access token and advances the
// session to the authenticated step. A vendor rejection leaves the session at
// its current step so the customer can retry with a fresh OTP.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, otp string) error {
	sess, err := s.sessionAt(sessionID, StepLoggedIn)
	if err != nil {
		return err
	}

	token, err := s.d.Carrier.VerifyOTP(ctx, sess.Credential(), otp)
	if err != nil {
		return err
	}

	sess.AccessToken = token
	sess.Step = StepAuthenticated
	s.d.Sessions.Put(sess.ID, sess)
	return nil
}

// InitiateTransfer validates the target and amount, asks the carrier to start
// the transfer to the store's receiving number, and stashes amount and target
// on the session. Nothing is credited yet.
func (s *Service) InitiateTransfer(ctx context.Context, sessionID string, amountIQD int64, username string) error {
	sess, err := s.sessionAt(sessionID, StepAuthenticated)
	if err != nil {
		return err
	}
	if amountIQD < MinTransferIQD {
		return ErrAmountTooSmall
	}

	target, err := s.d.Users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}

	destPhone, err := s.receivingPhone(ctx)
	if err != nil {
		return err
	}

	if err := s.d.Carrier.InitiateTransfer(ctx, sess.Credential(), destPhone, amountIQD); err != nil {
		return err
	}

	sess.AmountIQD = amountIQD
	sess.TargetUserID = target.ID
	sess.TargetUsername = target.Username
	sess.Step = StepTransferInitiated
	s.d.Sessions.Put(sess.ID, sess)
	return nil
}

// ConfirmResult is the outcome of a confirmed transfer.
type ConfirmResult struct {
	AmountIQD     int64
	CreditedCents int64
}

// ConfirmTransfer completes the transfer with the second OTP and credits the
// target wallet exactly once, keyed by the session id. The session is
// destroyed on success; a repeat confirm with the same id fails uniformly.
func (s *Service) ConfirmTransfer(ctx context.Context, sessionID, otp string) (ConfirmResult, error) {
	sess, err := s.sessionAt(sessionID, StepTransferInitiated)
	if err != nil {
		return ConfirmResult{}, err
	}

	if err := s.d.Carrier.ConfirmTransfer(ctx, sess.Credential(), otp); err != nil {
		return ConfirmResult{}, err
	}

	cents := ledger.IQDToCents(sess.AmountIQD)
	if _, err := s.d.Wallet.Credit(ctx, sess.TargetUserID, cents, ledger.KindTransferConfirm, sess.ID); err != nil {
		if !errors.Is(err, ledger.ErrDuplicateCredit) {
			return ConfirmResult{}, err
		}
	}

	s.d.Sessions.Delete(sess.ID)
	s.d.Metrics.TransferConfirmed()
	s.notifyCredit(ctx, sess.TargetUsername, cents)

	s.d.Logger.Info("transfer confirmed",
		"session_id", sess.ID,
		"target", sess.TargetUsername,
		"amount_iqd", sess.AmountIQD,
	)
	return ConfirmResult{AmountIQD: sess.AmountIQD, CreditedCents: cents}, nil
}

// CreatePending registers a promised manual transfer and tells the customer
// which store number to send to.
func (s *Service) CreatePending(ctx context.Context, username string, amountIQD int64) (PendingTransfer, error) {
	if amountIQD < MinTransferIQD {
		return PendingTransfer{}, ErrAmountTooSmall
	}
	if _, err := s.d.Users.FindByUsername(ctx, username); err != nil {
		return PendingTransfer{}, fmt.Errorf("target: %w", err)
	}

	storePhone := ""
	if phone := s.d.Identity.Phone(); phone != "" {
		if _, authenticated := s.d.Identity.Snapshot(); authenticated {
			storePhone = phone
		}
	}
	if storePhone == "" {
		phone, err := s.receivingPhone(ctx)
		if err != nil {
			return PendingTransfer{}, err
		}
		storePhone = phone
	}

	pending := PendingTransfer{
		ID:         uuid.NewString(),
		Username:   username,
		AmountIQD:  amountIQD,
		StorePhone: storePhone,
		CreatedAt:  time.Now().UTC(),
	}
	s.d.Pending.Put(pending.ID, pending)
	return pending, nil
}

// VoucherOutcome is the result of redeeming a voucher into a wallet.
type VoucherOutcome struct {
	AmountIQD     int64
	CreditedCents int64
}

// RedeemVoucher applies a scratch voucher to the store carrier account and
// credits the named user's wallet, keyed by the voucher code.
func (s *Service) RedeemVoucher(ctx context.Context, code, username string) (VoucherOutcome, error) {
	cred, authenticated := s.d.Identity.Snapshot()
	if !authenticated {
		return VoucherOutcome{}, ErrStoreNotConnected
	}

	target, err := s.d.Users.FindByUsername(ctx, username)
	if err != nil {
		return VoucherOutcome{}, fmt.Errorf("target: %w", err)
	}

	res, err := s.d.Carrier.ApplyVoucher(ctx, cred, code)
	if err != nil {
		return VoucherOutcome{}, err
	}
	if res.AmountIQD <= 0 {
		return VoucherOutcome{}, &carrier.RejectedError{Message: res.Message}
	}

	cents := ledger.IQDToCents(res.AmountIQD)
	if _, err := s.d.Wallet.Credit(ctx, target.ID, cents, ledger.KindVoucher, code); err != nil {
		if !errors.Is(err, ledger.ErrDuplicateCredit) {
			return VoucherOutcome{}, err
		}
	}

	s.notifyCredit(ctx, target.Username, cents)
	return VoucherOutcome{AmountIQD: res.AmountIQD, CreditedCents: cents}, nil
}

// sessionAt looks up a session and requires it to be at the given step. Every
// failure mode collapses into ErrSessionInvalid.
func (s *Service) sessionAt(sessionID string, step Step) (Session, error) {
	sess, ok := s.d.Sessions.Get(sessionID)
	if !ok || sess.Step != step {
		return Session{}, ErrSessionInvalid
	}
	return sess, nil
}

func (s *Service) receivingPhone(ctx context.Context) (string, error) {
	phone, err := s.d.Channels.ActivePhone(ctx)
	if err == nil {
		return phone, nil
	}
	if !errors.Is(err, gateway.ErrNoActiveChannel) {
		return "", err
	}
	if s.d.StorePhone != "" {
		return s.d.StorePhone, nil
	}
	return "", ErrNoReceivingNumber
}

func (s *Service) notifyCredit(ctx context.Context, username string, cents int64) {
	if s.d.Notifier == nil {
		return
	}
	_ = s.d.Notifier.Send(ctx, notification.Message{
		Kind:        notification.KindWalletCredit,
		Destination: username,
		Body:        fmt.Sprintf("Your wallet was credited $%.2f", ledger.CentsToUSD(cents)),
	})
}
