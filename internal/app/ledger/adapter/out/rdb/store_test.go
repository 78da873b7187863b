package rdb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	"github.com/JoeShih716/go-finance-ledger/pkg/database"
	tokenpkg "github.com/JoeShih716/go-finance-ledger/pkg/token"
)

// newTestStore 每個測試使用獨立的 in-memory sqlite 資料庫
func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	client, err := database.NewClient(database.Config{
		Driver:         database.DriverSQLite,
		Path:           "file:" + name + "?mode=memory&cache=shared",
		LogLevel:       "silent",
		ConnectRetries: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(client.DB())
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, user := range []string{"alice", "bob"} {
		if err := store.EnsureUser(context.Background(), user, user+"@example.com"); err != nil {
			t.Fatalf("ensure user %s: %v", user, err)
		}
	}
	return store
}

func newTestLedger(store usecase.Store) *usecase.LedgerUseCase {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return usecase.NewLedgerUseCase(store,
		usecase.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		usecase.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
	)
}

func as(user string) context.Context {
	return usecase.WithUserID(context.Background(), user)
}

func balance(t *testing.T, s *Store, accountID string) decimal.Decimal {
	t.Helper()
	account, err := s.LockAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("load account %s: %v", accountID, err)
	}
	return account.Balance
}

func createAccount(t *testing.T, ledger *usecase.LedgerUseCase, owner string, opening int64) *domain.Account {
	t.Helper()
	account, err := ledger.CreateAccount(as(owner), usecase.AccountInput{
		Name:    "Main",
		Type:    domain.AccountTypeChecking,
		Balance: decimal.NewFromInt(opening),
		Bank:    "First Bank",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func postTransaction(t *testing.T, ledger *usecase.LedgerUseCase, owner, accountID string, typ domain.TransactionType, amount int64) *domain.Transaction {
	t.Helper()
	tran, err := ledger.CreateTransaction(as(owner), usecase.TransactionInput{
		AccountID: accountID,
		TransactionFields: domain.TransactionFields{
			Amount:      decimal.NewFromInt(amount),
			Description: "groceries",
			Category:    domain.CategoryFood,
			Type:        typ,
			Date:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tran
}

func TestTransactionLifecycleKeepsBalance(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)

	account := createAccount(t, ledger, "alice", 100)
	tran := postTransaction(t, ledger, "alice", account.ID, domain.TransactionTypeIncome, 50)
	if got := balance(t, store, account.ID); !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("after income want 150 got %s", got)
	}

	_, err := ledger.UpdateTransaction(as("alice"), usecase.TransactionUpdate{
		ID: tran.ID,
		TransactionFields: domain.TransactionFields{
			Amount:      decimal.NewFromInt(30),
			Description: "groceries",
			Category:    domain.CategoryFood,
			Type:        domain.TransactionTypeExpense,
			Date:        tran.Date,
		},
	})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	if got := balance(t, store, account.ID); !got.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("after update want 70 got %s", got)
	}

	if err := ledger.DeleteTransaction(as("alice"), tran.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if got := balance(t, store, account.ID); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("after delete want 100 got %s", got)
	}

	stored, _ := store.LockAccount(context.Background(), account.ID)
	if stored.Version != 3 {
		t.Fatalf("expected version 3 after three balance writes, got %d", stored.Version)
	}
	if stored.Bank != "First Bank" {
		t.Fatalf("bank not persisted: %q", stored.Bank)
	}
}

func TestAtomicRollsBackOnFailedBalanceWrite(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)
	account := createAccount(t, ledger, "alice", 100)
	tran := postTransaction(t, ledger, "alice", account.ID, domain.TransactionTypeExpense, 20)

	var failing atomic.Bool
	err := store.db.Callback().Update().Before("gorm:update").Register("test:fail_accounts", func(tx *gorm.DB) {
		if failing.Load() && tx.Statement.Table == "accounts" {
			_ = tx.AddError(errors.New("injected fault"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	failing.Store(true)

	_, err = ledger.UpdateTransaction(as("alice"), usecase.TransactionUpdate{
		ID: tran.ID,
		TransactionFields: domain.TransactionFields{
			Amount:      decimal.NewFromInt(500),
			Description: "rent",
			Category:    domain.CategoryBills,
			Type:        domain.TransactionTypeExpense,
			Date:        tran.Date,
		},
	})
	if domain.KindOf(err) != domain.KindStorage {
		t.Fatalf("expected storage failure, got %v", err)
	}
	failing.Store(false)

	if got := balance(t, store, account.ID); !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("balance changed despite rollback: %s", got)
	}
	stored, err := store.OwnedTransaction(context.Background(), "alice", tran.ID)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromInt(20)) || stored.Description != "groceries" {
		t.Fatalf("transaction row changed despite rollback: %+v", stored)
	}
}

func TestDeleteAccountRemovesTransactions(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)
	first := createAccount(t, ledger, "alice", 0)
	second := createAccount(t, ledger, "alice", 0)
	postTransaction(t, ledger, "alice", first.ID, domain.TransactionTypeIncome, 10)
	postTransaction(t, ledger, "alice", first.ID, domain.TransactionTypeIncome, 20)
	kept := postTransaction(t, ledger, "alice", second.ID, domain.TransactionTypeIncome, 30)

	if err := ledger.DeleteAccount(as("alice"), first.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	trans, err := ledger.ListTransactions(as("alice"), "")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(trans) != 1 || trans[0].ID != kept.ID {
		t.Fatalf("expected only %s to remain, got %+v", kept.ID, trans)
	}
	if _, err := store.LockAccount(context.Background(), first.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected deleted account to be gone, got %v", err)
	}
}

func TestOwnershipChecks(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)
	account := createAccount(t, ledger, "alice", 100)
	tran := postTransaction(t, ledger, "alice", account.ID, domain.TransactionTypeIncome, 5)

	_, err := ledger.CreateTransaction(as("bob"), usecase.TransactionInput{
		AccountID: account.ID,
		TransactionFields: domain.TransactionFields{
			Amount:      decimal.NewFromInt(1),
			Description: "sneaky",
			Category:    domain.CategoryOther,
			Type:        domain.TransactionTypeIncome,
			Date:        tran.Date,
		},
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected account not found for foreign account, got %v", err)
	}
	if err := ledger.DeleteTransaction(as("bob"), tran.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found for foreign transaction, got %v", err)
	}
	if err := ledger.DeleteAccount(as("bob"), account.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign account delete, got %v", err)
	}
	accounts, _ := ledger.ListAccounts(as("bob"))
	if len(accounts) != 0 {
		t.Fatalf("bob should see no accounts, got %d", len(accounts))
	}
}

func TestUpdateBalanceRejectsStaleVersion(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)
	account := createAccount(t, ledger, "alice", 100)
	ctx := context.Background()

	first, _ := store.LockAccount(ctx, account.ID)
	second, _ := store.LockAccount(ctx, account.ID)

	first.Apply(decimal.NewFromInt(10))
	if err := store.UpdateBalance(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	second.Apply(decimal.NewFromInt(-5))
	if err := store.UpdateBalance(ctx, second); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	if got := balance(t, store, account.ID); !got.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("want 110 got %s", got)
	}
}

func TestListTransactionsOrdersByDate(t *testing.T) {
	store := newTestStore(t)
	ledger := newTestLedger(store)
	account := createAccount(t, ledger, "alice", 0)

	for _, d := range []int{3, 1, 2} {
		_, err := ledger.CreateTransaction(as("alice"), usecase.TransactionInput{
			AccountID: account.ID,
			TransactionFields: domain.TransactionFields{
				Amount:      decimal.NewFromInt(int64(d)),
				Description: "item",
				Category:    domain.CategoryShopping,
				Type:        domain.TransactionTypeExpense,
				Date:        time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	trans, err := ledger.ListTransactions(as("alice"), account.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if trans[i].Date.Day() != want {
			t.Fatalf("position %d: want day %d got %s", i, want, trans[i].Date)
		}
	}
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.IssueSession(ctx, "carol", time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if !strings.HasPrefix(token, SessionPrefix) || len(token) != len(SessionPrefix)+64 {
		t.Fatalf("unexpected token format %q", token)
	}

	userID, err := store.Authenticate(ctx, token)
	if err != nil || userID != "carol" {
		t.Fatalf("authenticate: user=%q err=%v", userID, err)
	}

	var stored sqlSession
	if err := store.db.Take(&stored).Error; err != nil {
		t.Fatalf("load session row: %v", err)
	}
	if stored.TokenHash == token || stored.TokenHash != tokenpkg.Hash(token) {
		t.Fatalf("session must store only the token hash")
	}

	if _, err := store.Authenticate(ctx, "sess_unknown"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown token, got %v", err)
	}

	expired, err := store.IssueSession(ctx, "carol", -time.Minute)
	if err != nil {
		t.Fatalf("issue expired session: %v", err)
	}
	if _, err := store.Authenticate(ctx, expired); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}

	if err := store.RevokeSession(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after revoke, got %v", err)
	}
}
