package user

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the minimal customer endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	PIN      string `json:"pin"`
}

// Register creates a customer record.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	u, err := h.service.Register(c.UserContext(), RegisterInput{Username: req.Username, Phone: req.Phone, PIN: req.PIN})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user_id": u.ID})
}
