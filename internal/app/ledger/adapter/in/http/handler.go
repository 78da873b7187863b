package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// response 所有 REST 回應的共同格式
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// transactionRequest date 同時接受 YYYY-MM-DD 與 RFC 3339
type transactionRequest struct {
	AccountID   string                 `json:"accountId"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Category    domain.Category        `json:"category"`
	Type        domain.TransactionType `json:"type"`
	Date        string                 `json:"date"`
}

const dateLayout = "2006-01-02"

func (r transactionRequest) fields() (domain.TransactionFields, error) {
	fields := domain.TransactionFields{
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
	}
	date := strings.TrimSpace(r.Date)
	if date == "" {
		return fields, nil
	}
	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		if parsed, err = time.Parse(dateLayout, date); err != nil {
			return fields, &domain.ValidationError{Issues: []domain.Issue{{Field: "date", Message: "Invalid date"}}}
		}
	}
	fields.Date = parsed.UTC()
	return fields, nil
}

type LedgerHandler struct {
	Ledger *usecase.LedgerUseCase
}

func NewLedgerHandler(ledger *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{Ledger: ledger}
}

// fail 依錯誤分類決定狀態碼
func fail(c *fiber.Ctx, op usecase.Op, err error) error {
	message, details := usecase.Describe(op, err)
	status := fiber.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = fiber.StatusBadRequest
	case domain.KindUnauthorized:
		status = fiber.StatusUnauthorized
	case domain.KindNotFound:
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(response{Error: message, Details: details})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(response{Error: "Invalid form data", Details: err.Error()})
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(response{Success: true, Data: data})
}

func (h *LedgerHandler) CreateAccount(c *fiber.Ctx) error {
	var req usecase.AccountInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	account, err := h.Ledger.CreateAccount(c.UserContext(), req)
	if err != nil {
		return fail(c, usecase.OpCreateAccount, err)
	}
	return ok(c, fiber.StatusCreated, account)
}

func (h *LedgerHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.Ledger.ListAccounts(c.UserContext())
	if err != nil {
		return fail(c, usecase.OpListAccounts, err)
	}
	return ok(c, fiber.StatusOK, accounts)
}

func (h *LedgerHandler) UpdateAccount(c *fiber.Ctx) error {
	var fields domain.AccountFields
	if err := c.BodyParser(&fields); err != nil {
		return badBody(c, err)
	}
	account, err := h.Ledger.UpdateAccount(c.UserContext(), usecase.AccountUpdate{
		ID:            c.Params("id"),
		AccountFields: fields,
	})
	if err != nil {
		return fail(c, usecase.OpUpdateAccount, err)
	}
	return ok(c, fiber.StatusOK, account)
}

func (h *LedgerHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.Ledger.DeleteAccount(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, usecase.OpDeleteAccount, err)
	}
	return ok(c, fiber.StatusOK, nil)
}

func (h *LedgerHandler) CreateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	fields, err := req.fields()
	if err != nil {
		return fail(c, usecase.OpCreateTransaction, err)
	}
	tran, err := h.Ledger.CreateTransaction(c.UserContext(), usecase.TransactionInput{
		TransactionFields: fields,
		AccountID:         req.AccountID,
	})
	if err != nil {
		return fail(c, usecase.OpCreateTransaction, err)
	}
	return ok(c, fiber.StatusCreated, tran)
}

func (h *LedgerHandler) ListTransactions(c *fiber.Ctx) error {
	trans, err := h.Ledger.ListTransactions(c.UserContext(), c.Query("accountId"))
	if err != nil {
		return fail(c, usecase.OpListTransactions, err)
	}
	return ok(c, fiber.StatusOK, trans)
}

func (h *LedgerHandler) UpdateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	fields, err := req.fields()
	if err != nil {
		return fail(c, usecase.OpUpdateTransaction, err)
	}
	tran, err := h.Ledger.UpdateTransaction(c.UserContext(), usecase.TransactionUpdate{
		ID:                c.Params("id"),
		TransactionFields: fields,
	})
	if err != nil {
		return fail(c, usecase.OpUpdateTransaction, err)
	}
	return ok(c, fiber.StatusOK, tran)
}

func (h *LedgerHandler) DeleteTransaction(c *fiber.Ctx) error {
	if err := h.Ledger.DeleteTransaction(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, usecase.OpDeleteTransaction, err)
	}
	return ok(c, fiber.StatusOK, nil)
}
