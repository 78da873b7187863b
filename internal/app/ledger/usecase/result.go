package usecase

import (
	"errors"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
)

// Op 帳本操作名稱，用於 log、Journal 與錯誤訊息
type Op string

const (
	OpCreateAccount     Op = "create account"
	OpListAccounts      Op = "fetch accounts"
	OpUpdateAccount     Op = "update account"
	OpDeleteAccount     Op = "delete account"
	OpCreateTransaction Op = "create transaction"
	OpListTransactions  Op = "fetch transactions"
	OpUpdateTransaction Op = "update transaction"
	OpDeleteTransaction Op = "delete transaction"
)

// Describe 將錯誤轉為給呼叫端看的訊息
//
// 回傳:
//
//	message: 固定的人類可讀訊息 (例如 "Account not found")
//	details: 驗證錯誤的細節，其他情況為空字串
func Describe(op Op, err error) (message, details string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Invalid form data", verr.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized", ""
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account not found", ""
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "Transaction not found", ""
	default:
		return "Failed to " + string(op), ""
	}
}
