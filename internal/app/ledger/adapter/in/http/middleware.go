package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// Protected 驗證 Authorization: Bearer <token>，並把使用者 ID 放進 UserContext
func Protected(auth usecase.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(response{Error: "Unauthorized", Details: "missing bearer token"})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(response{Error: "Unauthorized", Details: "invalid authorization header"})
		}

		userID, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			if domain.KindOf(err) == domain.KindUnauthorized {
				return c.Status(fiber.StatusUnauthorized).JSON(response{Error: "Unauthorized"})
			}
			slog.Error("session lookup failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(response{Error: "Failed to verify session"})
		}

		c.SetUserContext(usecase.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// RequestLogger 以 slog 記錄每個請求
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start),
		)
		return err
	}
}
