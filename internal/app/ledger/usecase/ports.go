package usecase

import (
	"context"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
)

// Repository 帳戶與交易的儲存操作
//
// Lock 開頭的方法在 Atomic 內呼叫時會鎖住帳戶列 (SELECT ... FOR UPDATE)，
// 直到該交易結束。
type Repository interface {
	InsertAccount(ctx context.Context, account *domain.Account) error
	// LockAccount 只以 id 查詢，不過濾擁有者
	LockAccount(ctx context.Context, accountID string) (*domain.Account, error)
	// LockOwnedAccount 以 id 與擁有者一起查詢
	LockOwnedAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error)
	// UpdateAccount 覆寫 name/type/balance/bank，以 Version 做 compare-and-set
	UpdateAccount(ctx context.Context, account *domain.Account) error
	// UpdateBalance 只寫入 balance，以 Version 做 compare-and-set
	UpdateBalance(ctx context.Context, account *domain.Account) error
	// DeleteAccount 刪除帳戶與其所有交易
	DeleteAccount(ctx context.Context, accountID string) error
	ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error)

	InsertTransaction(ctx context.Context, tran *domain.Transaction) error
	OwnedTransaction(ctx context.Context, ownerID, transactionID string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tran *domain.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID string) error
	// ListTransactions accountID 為空時列出使用者全部交易
	ListTransactions(ctx context.Context, ownerID, accountID string) ([]domain.Transaction, error)
}

// Store 是帳本的儲存介面
type Store interface {
	Repository
	// Atomic 在單一儲存交易內執行 fn，fn 回傳錯誤時所有寫入都不會生效
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}

// Authenticator 將 session token 解析為使用者 ID
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthenticatorFunc 讓一般函式實作 Authenticator
type AuthenticatorFunc func(ctx context.Context, token string) (string, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// Journal 記錄已提交的帳務異動
type Journal interface {
	Append(v any) error
}
