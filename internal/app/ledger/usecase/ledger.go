package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
)

// AccountInput 建立帳戶的輸入，Balance 省略時為 0
type AccountInput = domain.AccountFields

// AccountUpdate 更新帳戶的輸入，為整組覆寫而非部分修改
type AccountUpdate struct {
	ID string `json:"id"`
	domain.AccountFields
}

// TransactionInput 建立交易的輸入
type TransactionInput struct {
	domain.TransactionFields
	AccountID string `json:"accountId"`
}

// TransactionUpdate 更新交易的輸入，所屬帳戶不可變更
type TransactionUpdate struct {
	ID string `json:"id"`
	domain.TransactionFields
}

// JournalEntry 寫入 Journal 的一筆已提交異動
type JournalEntry struct {
	Op            Op              `json:"op"`
	UserID        string          `json:"user_id"`
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Delta         decimal.Decimal `json:"delta"`
	Balance       decimal.Decimal `json:"balance"`
	At            time.Time       `json:"at"`
}

// LedgerUseCase 是帳本的核心業務邏輯層
//
// 所有操作都先從 context 取出使用者 (WithUserID)，再驗證輸入，最後才存取 Store。
// 交易的新增/修改/刪除與帳戶餘額的調整在同一個 Store.Atomic 內完成。
type LedgerUseCase struct {
	store   Store
	journal Journal
	logger  *slog.Logger
	now     func() time.Time
	newID   func() (string, error)
}

// Option 定義了 LedgerUseCase 的配置選項函數
type Option func(*LedgerUseCase)

// WithJournal 設定已提交異動的 Journal
func WithJournal(journal Journal) Option {
	return func(l *LedgerUseCase) {
		l.journal = journal
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *LedgerUseCase) {
		l.logger = logger
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(l *LedgerUseCase) {
		l.now = now
	}
}

// WithIDGenerator 替換 ID 產生器 (測試用)
func WithIDGenerator(newID func() (string, error)) Option {
	return func(l *LedgerUseCase) {
		l.newID = newID
	}
}

func NewLedgerUseCase(store Store, opts ...Option) *LedgerUseCase {
	l := &LedgerUseCase{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  newUUIDv7,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreateAccount 建立帳戶，餘額為輸入的初始值
func (l *LedgerUseCase) CreateAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpCreateAccount, err)
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, l.fail(ctx, OpCreateAccount, err)
	}
	id, err := l.newID()
	if err != nil {
		return nil, l.fail(ctx, OpCreateAccount, err)
	}

	now := l.now()
	account := &domain.Account{
		ID:        id,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account.Assign(in)
	if err := l.store.InsertAccount(ctx, account); err != nil {
		return nil, l.fail(ctx, OpCreateAccount, err)
	}

	l.record(JournalEntry{
		Op:        OpCreateAccount,
		UserID:    ownerID,
		AccountID: account.ID,
		Balance:   account.Balance,
		At:        now,
	})
	return account, nil
}

// ListAccounts 依建立時間遞增列出使用者的帳戶
func (l *LedgerUseCase) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpListAccounts, err)
	}
	accounts, err := l.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, l.fail(ctx, OpListAccounts, err)
	}
	return accounts, nil
}

// UpdateAccount 整組覆寫帳戶欄位，Balance 為直接覆寫 (手動校正)
//
// 先只用 id 查詢再比對擁有者: 不存在回傳 ErrAccountNotFound，
// 屬於他人回傳 ErrUnauthorized。
func (l *LedgerUseCase) UpdateAccount(ctx context.Context, in AccountUpdate) (*domain.Account, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpUpdateAccount, err)
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, l.fail(ctx, OpUpdateAccount, err)
	}

	now := l.now()
	var updated *domain.Account
	var previous decimal.Decimal
	err = l.store.Atomic(ctx, func(repo Repository) error {
		account, err := repo.LockAccount(ctx, in.ID)
		if err != nil {
			return err
		}
		if account.UserID != ownerID {
			return domain.ErrUnauthorized
		}
		previous = account.Balance
		account.Assign(in.AccountFields)
		account.UpdatedAt = now
		if err := repo.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, l.fail(ctx, OpUpdateAccount, err)
	}

	l.record(JournalEntry{
		Op:        OpUpdateAccount,
		UserID:    ownerID,
		AccountID: updated.ID,
		Delta:     updated.Balance.Sub(previous),
		Balance:   updated.Balance,
		At:        now,
	})
	return updated, nil
}

// DeleteAccount 刪除帳戶，其所有交易一併刪除
func (l *LedgerUseCase) DeleteAccount(ctx context.Context, accountID string) error {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return l.fail(ctx, OpDeleteAccount, err)
	}

	err = l.store.Atomic(ctx, func(repo Repository) error {
		account, err := repo.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.UserID != ownerID {
			return domain.ErrUnauthorized
		}
		return repo.DeleteAccount(ctx, account.ID)
	})
	if err != nil {
		return l.fail(ctx, OpDeleteAccount, err)
	}

	l.record(JournalEntry{
		Op:        OpDeleteAccount,
		UserID:    ownerID,
		AccountID: accountID,
		At:        l.now(),
	})
	return nil
}

// CreateTransaction 新增交易並調整帳戶餘額
//
// 帳戶以 id 與擁有者一起查詢，查不到時一律回傳 ErrAccountNotFound。
// 插入交易列與更新餘額在同一個 Atomic 內，任一失敗兩者都不生效。
func (l *LedgerUseCase) CreateTransaction(ctx context.Context, in TransactionInput) (*domain.Transaction, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpCreateTransaction, err)
	}
	in.Normalize()
	if err := in.ValidateNew(in.AccountID); err != nil {
		return nil, l.fail(ctx, OpCreateTransaction, err)
	}
	id, err := l.newID()
	if err != nil {
		return nil, l.fail(ctx, OpCreateTransaction, err)
	}

	now := l.now()
	tran := &domain.Transaction{
		ID:        id,
		AccountID: in.AccountID,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tran.Assign(in.TransactionFields)

	var balance decimal.Decimal
	err = l.store.Atomic(ctx, func(repo Repository) error {
		account, err := repo.LockOwnedAccount(ctx, ownerID, in.AccountID)
		if err != nil {
			return err
		}
		if err := repo.InsertTransaction(ctx, tran); err != nil {
			return err
		}
		account.Apply(tran.Delta())
		account.UpdatedAt = now
		if err := repo.UpdateBalance(ctx, account); err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return nil, l.fail(ctx, OpCreateTransaction, err)
	}

	l.record(JournalEntry{
		Op:            OpCreateTransaction,
		UserID:        ownerID,
		AccountID:     tran.AccountID,
		TransactionID: tran.ID,
		Delta:         tran.Delta(),
		Balance:       balance,
		At:            now,
	})
	return tran, nil
}

// ListTransactions 依邏輯日期 (Date) 遞增列出交易，accountID 為空時列出全部
func (l *LedgerUseCase) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpListTransactions, err)
	}
	trans, err := l.store.ListTransactions(ctx, ownerID, accountID)
	if err != nil {
		return nil, l.fail(ctx, OpListTransactions, err)
	}
	return trans, nil
}

// UpdateTransaction 覆寫交易內容並以 (新 delta - 舊 delta) 調整餘額
//
// 舊 delta 一律取自儲存中的值，不信任呼叫端提供的舊值。
func (l *LedgerUseCase) UpdateTransaction(ctx context.Context, in TransactionUpdate) (*domain.Transaction, error) {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return nil, l.fail(ctx, OpUpdateTransaction, err)
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, l.fail(ctx, OpUpdateTransaction, err)
	}

	now := l.now()
	var updated domain.Transaction
	var adjustment, balance decimal.Decimal
	err = l.store.Atomic(ctx, func(repo Repository) error {
		stored, account, err := lockTransaction(ctx, repo, ownerID, in.ID)
		if err != nil {
			return err
		}
		updated = *stored
		updated.Assign(in.TransactionFields)
		updated.UpdatedAt = now
		adjustment = domain.Adjustment(stored, &updated)

		if err := repo.UpdateTransaction(ctx, &updated); err != nil {
			return err
		}
		account.Apply(adjustment)
		account.UpdatedAt = now
		if err := repo.UpdateBalance(ctx, account); err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return nil, l.fail(ctx, OpUpdateTransaction, err)
	}

	l.record(JournalEntry{
		Op:            OpUpdateTransaction,
		UserID:        ownerID,
		AccountID:     updated.AccountID,
		TransactionID: updated.ID,
		Delta:         adjustment,
		Balance:       balance,
		At:            now,
	})
	return &updated, nil
}

// DeleteTransaction 刪除交易並沖回其對餘額的影響
func (l *LedgerUseCase) DeleteTransaction(ctx context.Context, transactionID string) error {
	ownerID, err := UserIDFrom(ctx)
	if err != nil {
		return l.fail(ctx, OpDeleteTransaction, err)
	}

	now := l.now()
	var removed domain.Transaction
	var balance decimal.Decimal
	err = l.store.Atomic(ctx, func(repo Repository) error {
		stored, account, err := lockTransaction(ctx, repo, ownerID, transactionID)
		if err != nil {
			return err
		}
		if err := repo.DeleteTransaction(ctx, stored.ID); err != nil {
			return err
		}
		account.Apply(stored.Reversal())
		account.UpdatedAt = now
		if err := repo.UpdateBalance(ctx, account); err != nil {
			return err
		}
		removed = *stored
		balance = account.Balance
		return nil
	})
	if err != nil {
		return l.fail(ctx, OpDeleteTransaction, err)
	}

	l.record(JournalEntry{
		Op:            OpDeleteTransaction,
		UserID:        ownerID,
		AccountID:     removed.AccountID,
		TransactionID: removed.ID,
		Delta:         removed.Reversal(),
		Balance:       balance,
		At:            now,
	})
	return nil
}

// lockTransaction 取得交易與其帳戶，帳戶會被鎖住
//
// 鎖順序固定為 帳戶 -> 交易: 先以未鎖定的讀取取得 accountID，
// 鎖住帳戶後再重新讀取交易，之後的計算都使用鎖內讀到的值。
func lockTransaction(ctx context.Context, repo Repository, ownerID, transactionID string) (*domain.Transaction, *domain.Account, error) {
	tran, err := repo.OwnedTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return nil, nil, err
	}
	account, err := repo.LockOwnedAccount(ctx, ownerID, tran.AccountID)
	if err != nil {
		return nil, nil, err
	}
	tran, err = repo.OwnedTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return nil, nil, err
	}
	return tran, account, nil
}

// record 寫入 Journal。此時儲存交易已提交，失敗只記錄 log
func (l *LedgerUseCase) record(entry JournalEntry) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(entry); err != nil {
		l.logger.Error("journal append failed",
			"op", entry.Op,
			"account_id", entry.AccountID,
			"transaction_id", entry.TransactionID,
			"error", err,
		)
	}
}

// fail 依錯誤分類記錄 log，原樣回傳錯誤
func (l *LedgerUseCase) fail(ctx context.Context, op Op, err error) error {
	switch domain.KindOf(err) {
	case domain.KindStorage:
		l.logger.ErrorContext(ctx, "ledger operation failed", "op", op, "error", err)
	case domain.KindValidation:
		l.logger.WarnContext(ctx, "invalid ledger input", "op", op, "error", err)
	default:
		l.logger.InfoContext(ctx, "ledger operation rejected", "op", op, "error", err)
	}
	return err
}
