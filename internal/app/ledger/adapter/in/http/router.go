package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// NewApp 建立 fiber App 並註冊所有路由
//
// 參數:
//
//	handler: 帳本 REST handler
//	auth: 解析 Bearer token 的 Authenticator
//	logger: 請求 log
func NewApp(handler *LedgerHandler, auth usecase.Authenticator, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "finance-ledger",
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(RequestLogger(logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/v1", Protected(auth))

	api.Get("/accounts", handler.ListAccounts)
	api.Post("/accounts", handler.CreateAccount)
	api.Put("/accounts/:id", handler.UpdateAccount)
	api.Delete("/accounts/:id", handler.DeleteAccount)

	api.Get("/transactions", handler.ListTransactions)
	api.Post("/transactions", handler.CreateTransaction)
	api.Put("/transactions/:id", handler.UpdateTransaction)
	api.Delete("/transactions/:id", handler.DeleteTransaction)

	return app
}
