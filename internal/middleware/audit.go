package middleware

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits structured logs for each request/response lifecycle event. When
// a transfer or admin request carries a session id or phone in its body the
// log includes them, the phone masked down to its prefix and last two digits
// so a full MSISDN never lands in the logs.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		duration := time.Since(start)
		requestID, _ := c.Locals(requestIDHeader).(string)

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		}
		if requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if sessionID, phone := flowFields(c); sessionID != "" || phone != "" {
			if sessionID != "" {
				attrs = append(attrs, slog.String("session_id", sessionID))
			}
			if phone != "" {
				attrs = append(attrs, slog.String("phone", phone))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request completed", attrs...)
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}

// flowFields pulls the customer-flow identifiers out of a POST body, masking
// the phone. A body that is not JSON yields nothing.
func flowFields(c *fiber.Ctx) (sessionID, maskedPhone string) {
	if c.Method() != fiber.MethodPost {
		return "", ""
	}
	var body struct {
		SessionID string `json:"session_id"`
		Phone     string `json:"phone"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return "", ""
	}
	return body.SessionID, maskPhone(body.Phone)
}

func maskPhone(phone string) string {
	if len(phone) < 6 {
		return ""
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}
