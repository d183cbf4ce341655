package admin

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
)

// Handler exposes the admin HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an admin HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Status reports the store identity state.
func (h *Handler) Status(c *fiber.Ctx) error {
	status := h.service.Status()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"authenticated": status.Authenticated,
		"phone":         status.Phone,
	})
}

type loginRequest struct {
	Phone string `json:"phone"`
}

// Login starts the store account login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	message, err := h.service.Login(c.UserContext(), req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	if message == "" {
		message = "verification code sent"
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": message})
}

type verifyRequest struct {
	OTP string `json:"otp"`
}

// Verify completes the store account login.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Verify(c.UserContext(), req.OTP); err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "store account connected"})
}

// Logout disconnects the store account.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.service.Logout()
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

// CheckRecords runs one reconciliation pass synchronously.
func (h *Handler) CheckRecords(c *fiber.Ctx) error {
	stats, err := h.service.CheckRecords(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"checked":   stats.Checked,
		"processed": stats.Credited,
		"total":     stats.Total,
	})
}

// Balance returns the store account's carrier balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance, "message": "ok"})
}

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
