package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

// RegisterUserRoutes wires the minimal customer endpoints.
func RegisterUserRoutes(r fiber.Router, h *user.Handler) {
	r.Post("/users", h.Register)
}
