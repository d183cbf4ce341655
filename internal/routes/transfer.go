package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tahweel-pay/tahweel_pay/internal/transfer"
)

// RegisterTransferRoutes wires the customer transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, loginLimiter, idempotency fiber.Handler) {
	r.Post("/transfer/login", loginLimiter, h.Login)
	r.Post("/transfer/verify-otp", h.VerifyOTP)
	r.Post("/transfer/initiate", h.Initiate)
	r.Post("/transfer/confirm", idempotency, h.Confirm)
	r.Post("/transfer/pending", h.Pending)
	r.Post("/vouchers/redeem", idempotency, h.RedeemVoucher)
}
