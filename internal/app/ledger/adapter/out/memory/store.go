package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// Store 是一個使用 Mutex 實現的帳本儲存
//
// 結構:
//
//	state: 目前已提交的帳戶與交易
//	mu: RWMutex 保護 state，Atomic 期間持有寫鎖
type Store struct {
	mu    sync.RWMutex
	state *state
}

// state 一份完整的帳本資料，Atomic 會在副本上操作，成功後才替換
type state struct {
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	// 插入順序，時間相同時用來穩定排序
	order map[string]uint64
	seq   uint64
}

func newState() *state {
	return &state{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		order:        make(map[string]uint64),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:     make(map[string]domain.Account, len(s.accounts)),
		transactions: make(map[string]domain.Transaction, len(s.transactions)),
		order:        make(map[string]uint64, len(s.order)),
		seq:          s.seq,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	return c
}

// NewStore 建立一個空的 Store 實例
func NewStore() *Store {
	return &Store{state: newState()}
}

// Atomic 在 state 副本上執行 fn，fn 成功才替換為新的 state
//
// 參數:
//
//	ctx: 上下文
//	fn: 交易內要執行的操作
//
// 回傳:
//
//	error: fn 回傳的錯誤，或 ctx 已取消
func (s *Store) Atomic(ctx context.Context, fn func(repo usecase.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&view{st: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *Store) read(fn func(v *view) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&view{st: s.state})
}

func (s *Store) write(ctx context.Context, fn func(v *view) error) error {
	return s.Atomic(ctx, func(repo usecase.Repository) error {
		return fn(repo.(*view))
	})
}

func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	return s.write(ctx, func(v *view) error { return v.InsertAccount(ctx, account) })
}

func (s *Store) LockAccount(ctx context.Context, accountID string) (account *domain.Account, err error) {
	err = s.read(func(v *view) error {
		account, err = v.LockAccount(ctx, accountID)
		return err
	})
	return account, err
}

func (s *Store) LockOwnedAccount(ctx context.Context, ownerID, accountID string) (account *domain.Account, err error) {
	err = s.read(func(v *view) error {
		account, err = v.LockOwnedAccount(ctx, ownerID, accountID)
		return err
	})
	return account, err
}

func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	return s.write(ctx, func(v *view) error { return v.UpdateAccount(ctx, account) })
}

func (s *Store) UpdateBalance(ctx context.Context, account *domain.Account) error {
	return s.write(ctx, func(v *view) error { return v.UpdateBalance(ctx, account) })
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	return s.write(ctx, func(v *view) error { return v.DeleteAccount(ctx, accountID) })
}

func (s *Store) ListAccounts(ctx context.Context, ownerID string) (accounts []domain.Account, err error) {
	err = s.read(func(v *view) error {
		accounts, err = v.ListAccounts(ctx, ownerID)
		return err
	})
	return accounts, err
}

func (s *Store) InsertTransaction(ctx context.Context, tran *domain.Transaction) error {
	return s.write(ctx, func(v *view) error { return v.InsertTransaction(ctx, tran) })
}

func (s *Store) OwnedTransaction(ctx context.Context, ownerID, transactionID string) (tran *domain.Transaction, err error) {
	err = s.read(func(v *view) error {
		tran, err = v.OwnedTransaction(ctx, ownerID, transactionID)
		return err
	})
	return tran, err
}

func (s *Store) UpdateTransaction(ctx context.Context, tran *domain.Transaction) error {
	return s.write(ctx, func(v *view) error { return v.UpdateTransaction(ctx, tran) })
}

func (s *Store) DeleteTransaction(ctx context.Context, transactionID string) error {
	return s.write(ctx, func(v *view) error { return v.DeleteTransaction(ctx, transactionID) })
}

func (s *Store) ListTransactions(ctx context.Context, ownerID, accountID string) (trans []domain.Transaction, err error) {
	err = s.read(func(v *view) error {
		trans, err = v.ListTransactions(ctx, ownerID, accountID)
		return err
	})
	return trans, err
}

// view 對單一 state 的操作，呼叫端負責持有鎖
type view struct {
	st *state
}

func (v *view) next(id string) {
	v.st.seq++
	v.st.order[id] = v.st.seq
}

func (v *view) InsertAccount(_ context.Context, account *domain.Account) error {
	if _, ok := v.st.accounts[account.ID]; ok {
		return &domain.StorageError{Op: "insert account", Err: domain.ErrAccountAlreadyExists}
	}
	v.st.accounts[account.ID] = *account
	v.next(account.ID)
	return nil
}

// LockAccount 整個 Store 已由 mu 保護，這裡只做查詢
func (v *view) LockAccount(_ context.Context, accountID string) (*domain.Account, error) {
	account, ok := v.st.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (v *view) LockOwnedAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	account, err := v.LockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != ownerID {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (v *view) UpdateAccount(_ context.Context, account *domain.Account) error {
	stored, err := v.checkVersion(account, "update account")
	if err != nil {
		return err
	}
	stored.Name = account.Name
	stored.Type = account.Type
	stored.Balance = account.Balance
	stored.Bank = account.Bank
	v.commitAccount(stored, account)
	return nil
}

func (v *view) UpdateBalance(_ context.Context, account *domain.Account) error {
	stored, err := v.checkVersion(account, "update balance")
	if err != nil {
		return err
	}
	stored.Balance = account.Balance
	v.commitAccount(stored, account)
	return nil
}

func (v *view) checkVersion(account *domain.Account, op string) (domain.Account, error) {
	stored, ok := v.st.accounts[account.ID]
	if !ok || stored.Version != account.Version {
		return domain.Account{}, &domain.StorageError{Op: op, Err: domain.ErrConcurrentUpdate}
	}
	return stored, nil
}

func (v *view) commitAccount(stored domain.Account, account *domain.Account) {
	stored.Version++
	stored.UpdatedAt = account.UpdatedAt
	v.st.accounts[stored.ID] = stored
	account.Version = stored.Version
}

// DeleteAccount 刪除帳戶並 cascade 刪除其交易
func (v *view) DeleteAccount(_ context.Context, accountID string) error {
	if _, ok := v.st.accounts[accountID]; !ok {
		return domain.ErrAccountNotFound
	}
	for id, tran := range v.st.transactions {
		if tran.AccountID == accountID {
			delete(v.st.transactions, id)
			delete(v.st.order, id)
		}
	}
	delete(v.st.accounts, accountID)
	delete(v.st.order, accountID)
	return nil
}

func (v *view) ListAccounts(_ context.Context, ownerID string) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	for _, account := range v.st.accounts {
		if account.UserID == ownerID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return v.st.order[accounts[i].ID] < v.st.order[accounts[j].ID]
	})
	return accounts, nil
}

// InsertTransaction 模擬 foreign key: 帳戶必須存在
func (v *view) InsertTransaction(_ context.Context, tran *domain.Transaction) error {
	if _, ok := v.st.accounts[tran.AccountID]; !ok {
		return &domain.StorageError{Op: "insert transaction", Err: domain.ErrAccountNotFound}
	}
	if _, ok := v.st.transactions[tran.ID]; ok {
		return &domain.StorageError{Op: "insert transaction", Err: domain.ErrTransactionAlreadyExists}
	}
	v.st.transactions[tran.ID] = *tran
	v.next(tran.ID)
	return nil
}

func (v *view) OwnedTransaction(_ context.Context, ownerID, transactionID string) (*domain.Transaction, error) {
	tran, ok := v.st.transactions[transactionID]
	if !ok || tran.UserID != ownerID {
		return nil, domain.ErrTransactionNotFound
	}
	return &tran, nil
}

func (v *view) UpdateTransaction(_ context.Context, tran *domain.Transaction) error {
	stored, ok := v.st.transactions[tran.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	stored.Assign(domain.TransactionFields{
		Amount:      tran.Amount,
		Description: tran.Description,
		Category:    tran.Category,
		Type:        tran.Type,
		Date:        tran.Date,
	})
	stored.UpdatedAt = tran.UpdatedAt
	v.st.transactions[tran.ID] = stored
	return nil
}

func (v *view) DeleteTransaction(_ context.Context, transactionID string) error {
	if _, ok := v.st.transactions[transactionID]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(v.st.transactions, transactionID)
	delete(v.st.order, transactionID)
	return nil
}

func (v *view) ListTransactions(_ context.Context, ownerID, accountID string) ([]domain.Transaction, error) {
	trans := make([]domain.Transaction, 0)
	for _, tran := range v.st.transactions {
		if tran.UserID != ownerID {
			continue
		}
		if accountID != "" && tran.AccountID != accountID {
			continue
		}
		trans = append(trans, tran)
	}
	sort.Slice(trans, func(i, j int) bool {
		if !trans[i].Date.Equal(trans[j].Date) {
			return trans[i].Date.Before(trans[j].Date)
		}
		return v.st.order[trans[i].ID] < v.st.order[trans[j].ID]
	})
	return trans, nil
}

var _ usecase.Store = (*Store)(nil)
var _ usecase.Repository = (*view)(nil)
