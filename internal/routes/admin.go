package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tahweel-pay/tahweel_pay/internal/admin"
)

// RegisterAdminRoutes wires the store-owner endpoints.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler, loginLimiter fiber.Handler) {
	grp := r.Group("/admin")
	grp.Get("/status", h.Status)
	grp.Post("/login", loginLimiter, h.Login)
	grp.Post("/verify", h.Verify)
	grp.Post("/logout", h.Logout)
	grp.Post("/check-records", h.CheckRecords)
	grp.Get("/balance", h.Balance)
}
