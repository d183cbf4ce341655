// Package transfer implements the OTP-gated customer balance-transfer flow
// and the short-lived pending-transfer registry.
package transfer

import (
	"errors"
	"regexp"
	"time"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
)

// MinTransferIQD is the smallest amount the carrier will move.
const MinTransferIQD = 250

// Step tracks a session's progress through the transfer flow. Steps only
// advance; there is no regression path.
type Step int

const (
	// StepLoggedIn means the carrier accepted the phone and sent a login OTP.
	StepLoggedIn Step = iota + 1
	// StepAuthenticated means the login OTP was exchanged for a bearer token.
	StepAuthenticated
	// StepTransferInitiated means the carrier accepted the transfer request
	// and sent the confirmation OTP.
	StepTransferInitiated
)

func (s Step) String() string {
	switch s {
	case StepLoggedIn:
		return "logged_in"
	case StepAuthenticated:
		return "authenticated"
	case StepTransferInitiated:
		return "transfer_initiated"
	default:
		return "unknown"
	}
}

var (
	// ErrSessionInvalid is the uniform error for unknown, expired, or
	// wrong-step session lookups. Callers cannot distinguish the cases and
	// must restart the flow from login.
	ErrSessionInvalid = errors.New("session expired or invalid")

	// ErrInvalidPhone rejects phones outside the domestic mobile format.
	ErrInvalidPhone = errors.New("phone must be a valid domestic mobile number")

	// ErrAmountTooSmall rejects amounts below the carrier minimum.
	ErrAmountTooSmall = errors.New("amount below the 250 IQD minimum")

	// ErrStoreNotConnected means the store carrier account is not authenticated.
	ErrStoreNotConnected = errors.New("store carrier account not connected")

	// ErrNoReceivingNumber means no receiving channel or fallback is configured.
	ErrNoReceivingNumber = errors.New("no receiving number configured")
)

// Domestic mobile numbers: 11 digits starting 07.
var phonePattern = regexp.MustCompile(`^07[0-9]{9}$`)

// ValidPhone reports whether phone matches the domestic mobile format.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Session is the ephemeral per-customer state for one transfer flow. It is
// owned exclusively by the session store and expires 15 minutes after
// creation regardless of activity.
type Session struct {
	ID             string
	Phone          string
	DeviceID       string
	ContinuationID string
	AccessToken    string
	OwnerUserID    string
	TargetUserID   string
	TargetUsername string
	AmountIQD      int64
	Step           Step
	CreatedAt      time.Time
}

// Credential assembles the vendor credential for this session.
func (s Session) Credential() carrier.Credential {
	return carrier.Credential{
		Phone:          s.Phone,
		DeviceID:       s.DeviceID,
		ContinuationID: s.ContinuationID,
		AccessToken:    s.AccessToken,
	}
}

// PendingTransfer records a customer's promise to transfer manually; it is
// informational only and expires after one hour.
type PendingTransfer struct {
	ID         string
	Username   string
	AmountIQD  int64
	StorePhone string
	CreatedAt  time.Time
}
