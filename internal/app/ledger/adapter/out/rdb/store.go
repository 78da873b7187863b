package rdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// Store 以 GORM 實作 usecase.Store
//
// 同一個型別同時代表連線層級與交易層級：Atomic 內傳給 fn 的是綁定 tx 的 Store。
type Store struct {
	db *gorm.DB
}

// NewStore 建立 Store
//
// 參數:
//
//	db: *gorm.DB - 通常來自 database.Client.DB()
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate 建立或更新資料表 (users, sessions, accounts, transactions)
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&sqlUser{},
		&sqlSession{},
		&sqlAccount{},
		&sqlTransaction{},
	)
	if err != nil {
		return &domain.StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// Atomic 在單一資料庫交易內執行 fn，fn 回傳錯誤時 rollback
func (s *Store) Atomic(ctx context.Context, fn func(repo usecase.Repository) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	return wrap("commit", err)
}

func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(toSQLAccount(account)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = domain.ErrAccountAlreadyExists
	}
	return wrap("insert account", err)
}

// LockAccount 以 SELECT ... FOR UPDATE 鎖住帳戶列
func (s *Store) LockAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var row sqlAccount
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		Take(&row).Error
	if err != nil {
		return nil, notFound("lock account", err, domain.ErrAccountNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) LockOwnedAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	var row sqlAccount
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", accountID, ownerID).
		Take(&row).Error
	if err != nil {
		return nil, notFound("lock account", err, domain.ErrAccountNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	return s.updateVersioned(ctx, "update account", account, map[string]any{
		"name":       account.Name,
		"type":       string(account.Type),
		"balance":    account.Balance,
		"bank":       bankValue(account.Bank),
		"updated_at": account.UpdatedAt,
	})
}

func (s *Store) UpdateBalance(ctx context.Context, account *domain.Account) error {
	return s.updateVersioned(ctx, "update balance", account, map[string]any{
		"balance":    account.Balance,
		"updated_at": account.UpdatedAt,
	})
}

// updateVersioned 以 version 做 compare-and-set，成功後 account.Version 加一
func (s *Store) updateVersioned(ctx context.Context, op string, account *domain.Account, values map[string]any) error {
	values["version"] = account.Version + 1
	res := s.db.WithContext(ctx).
		Model(&sqlAccount{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(values)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.StorageError{Op: op, Err: domain.ErrConcurrentUpdate}
	}
	account.Version++
	return nil
}

// DeleteAccount 刪除帳戶與其交易
//
// 外鍵已設定 ON DELETE CASCADE，這裡仍先明確刪除交易，避免依賴 driver 是否開啟外鍵。
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("account_id = ?", accountID).Delete(&sqlTransaction{}).Error; err != nil {
		return wrap("delete account transactions", err)
	}
	res := db.Where("id = ?", accountID).Delete(&sqlAccount{})
	if res.Error != nil {
		return wrap("delete account", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	var rows []sqlAccount
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list accounts", err)
	}
	accounts := make([]domain.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, *rows[i].toDomain())
	}
	return accounts, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tran *domain.Transaction) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(toSQLTransaction(tran)).Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = domain.ErrTransactionAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		err = domain.ErrAccountNotFound
	}
	return wrap("insert transaction", err)
}

func (s *Store) OwnedTransaction(ctx context.Context, ownerID, transactionID string) (*domain.Transaction, error) {
	var row sqlTransaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, ownerID).
		Take(&row).Error
	if err != nil {
		return nil, notFound("fetch transaction", err, domain.ErrTransactionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tran *domain.Transaction) error {
	res := s.db.WithContext(ctx).
		Model(&sqlTransaction{}).
		Where("id = ?", tran.ID).
		Updates(map[string]any{
			"amount":      tran.Amount,
			"description": tran.Description,
			"category":    string(tran.Category),
			"type":        string(tran.Type),
			"date":        tran.Date,
			"updated_at":  tran.UpdatedAt,
		})
	if res.Error != nil {
		return wrap("update transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, transactionID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", transactionID).Delete(&sqlTransaction{})
	if res.Error != nil {
		return wrap("delete transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID, accountID string) ([]domain.Transaction, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	var rows []sqlTransaction
	err := q.Order("date ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list transactions", err)
	}
	trans := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		trans = append(trans, *rows[i].toDomain())
	}
	return trans, nil
}

// wrap 將非 domain 錯誤包成 StorageError，已分類的錯誤原樣回傳
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *domain.StorageError
	if errors.As(err, &serr) || domain.KindOf(err) != domain.KindStorage {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

func notFound(op string, err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return wrap(op, err)
}

var _ usecase.Store = (*Store)(nil)
