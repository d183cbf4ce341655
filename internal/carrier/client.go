// Package carrier drives the mobile operator's private application API.
// The vendor protocol is undocumented: most endpoints signal failure by
// omitting an expected response field rather than by HTTP status, and the
// OTPs it issues are single-use, so no call here is ever retried.
package carrier

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnreachable indicates a transport-level failure talking to the vendor.
	ErrUnreachable = errors.New("carrier unreachable")

	// ErrUnauthorized indicates the vendor no longer accepts the access token.
	ErrUnauthorized = errors.New("carrier token unauthorized")
)

// RejectedError is a soft vendor rejection (wrong OTP, declined transfer).
// The flow that produced it may be retried with a fresh OTP.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "carrier rejected request"
	}
	return fmt.Sprintf("carrier rejected request: %s", e.Message)
}

// IsRejected reports whether err is a soft vendor rejection.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}

// Credential carries the per-account state every authenticated vendor call needs.
type Credential struct {
	Phone          string
	DeviceID       string
	ContinuationID string
	AccessToken    string
}

// LoginResult is the outcome of the first login step.
type LoginResult struct {
	ContinuationID string
	Message        string
}

// VoucherResult is the outcome of a voucher top-up.
type VoucherResult struct {
	AmountIQD int64
	Message   string
}

// Message is one entry from the vendor's message log.
type Message struct {
	ID     string
	Sender string
	Body   string
	SentAt time.Time
}

// Client is the set of vendor operations the service depends on.
type Client interface {
	// Login starts an OTP-gated login and returns the continuation id the
	// vendor expects back during verification.
	Login(ctx context.Context, phone string) (LoginResult, error)

	// VerifyOTP exchanges the login OTP for a bearer access token.
	VerifyOTP(ctx context.Context, cred Credential, otp string) (string, error)

	// InitiateTransfer starts a balance transfer to destPhone. The vendor
	// responds by sending a confirmation OTP to the account owner.
	InitiateTransfer(ctx context.Context, cred Credential, destPhone string, amountIQD int64) error

	// ConfirmTransfer completes a previously initiated transfer.
	ConfirmTransfer(ctx context.Context, cred Credential, otp string) error

	// ApplyVoucher redeems a scratch voucher against the account.
	ApplyVoucher(ctx context.Context, cred Credential, code string) (VoucherResult, error)

	// FetchMessages lists the account's message log, newest first per vendor default.
	FetchMessages(ctx context.Context, cred Credential, page, size int) ([]Message, error)

	// Balance returns the account's IQD balance.
	Balance(ctx context.Context, cred Credential) (int64, error)
}
