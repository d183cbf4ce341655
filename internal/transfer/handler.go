package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
)

// Handler exposes the customer-facing transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Phone       string `json:"phone"`
	OwnerUserID string `json:"owner_user_id"`
}

// Login starts a transfer flow.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Login(c.UserContext(), req.Phone, req.OwnerUserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"session_id": res.SessionID,
		"message":    res.Message,
	})
}

type verifyOTPRequest struct {
	SessionID string `json:"session_id"`
	OTP       string `json:"otp"`
}

// VerifyOTP advances the session to the authenticated step.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.VerifyOTP(c.UserContext(), req.SessionID, req.OTP); err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "verified"})
}

type initiateRequest struct {
	SessionID string `json:"session_id"`
	AmountIQD int64  `json:"amount_iqd"`
	Username  string `json:"username"`
}

// Initiate starts the transfer towards the store's receiving number.
func (h *Handler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.InitiateTransfer(c.UserContext(), req.SessionID, req.AmountIQD, req.Username); err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "confirmation code sent"})
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
	OTP       string `json:"otp"`
}

// Confirm completes the transfer and credits the wallet.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.ConfirmTransfer(c.UserContext(), req.SessionID, req.OTP)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"credited_usd": ledger.CentsToUSD(res.CreditedCents),
		"amount_iqd":   res.AmountIQD,
		"message":      "transfer received",
	})
}

type pendingRequest struct {
	AmountIQD int64  `json:"amount_iqd"`
	Username  string `json:"username"`
}

// Pending registers a promised manual transfer.
func (h *Handler) Pending(c *fiber.Ctx) error {
	var req pendingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	pending, err := h.service.CreatePending(c.UserContext(), req.Username, req.AmountIQD)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"pending_id":  pending.ID,
		"store_phone": pending.StorePhone,
		"message":     "send the transfer to the store number, it will be credited automatically",
	})
}

type voucherRequest struct {
	VoucherCode string `json:"voucher_code"`
	Username    string `json:"username"`
}

// RedeemVoucher applies a voucher to the store account and credits the user.
func (h *Handler) RedeemVoucher(c *fiber.Ctx) error {
	var req voucherRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.RedeemVoucher(c.UserContext(), req.VoucherCode, req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"credited_usd": ledger.CentsToUSD(res.CreditedCents),
		"amount_iqd":   res.AmountIQD,
	})
}

// respondError maps service errors onto the API contract: soft vendor
// rejections come back as success:false so the customer can retry the OTP,
// transport failures are hard 502s, everything else is a 400.
func respondError(c *fiber.Ctx, err error) error {
	var rejected *carrier.RejectedError
	if errors.As(err, &rejected) {
		message := rejected.Message
		if message == "" {
			message = "rejected by carrier"
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"success": false, "message": message})
	}
	if errors.Is(err, carrier.ErrUnreachable) {
		return fiber.NewError(http.StatusBadGateway, "carrier unreachable")
	}
	if errors.Is(err, carrier.ErrUnauthorized) {
		return c.Status(http.StatusOK).JSON(fiber.Map{"success": false, "message": "carrier authorization expired"})
	}
	return fiber.NewError(http.StatusBadRequest, err.Error())
}
