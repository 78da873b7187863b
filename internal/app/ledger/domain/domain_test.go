package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionDelta(t *testing.T) {
	cases := []struct {
		tranType TransactionType
		amount   string
		delta    string
	}{
		{TransactionTypeIncome, "50", "50"},
		{TransactionTypeExpense, "30", "-30"},
		{TransactionTypeExpense, "0.0125", "-0.0125"},
	}

	for _, c := range cases {
		tran := Transaction{Type: c.tranType, Amount: decimal.RequireFromString(c.amount)}
		if got := tran.Delta(); !got.Equal(decimal.RequireFromString(c.delta)) {
			t.Fatalf("%s %s: want delta %s got %s", c.tranType, c.amount, c.delta, got)
		}
		if got := tran.Reversal(); !got.Equal(decimal.RequireFromString(c.delta).Neg()) {
			t.Fatalf("%s %s: reversal %s does not cancel delta", c.tranType, c.amount, got)
		}
	}
}

func TestAdjustment(t *testing.T) {
	cases := []struct {
		name   string
		stored Transaction
		update Transaction
		want   int64
	}{
		{
			name:   "income shrinks",
			stored: Transaction{Type: TransactionTypeIncome, Amount: decimal.NewFromInt(50)},
			update: Transaction{Type: TransactionTypeIncome, Amount: decimal.NewFromInt(20)},
			want:   -30,
		},
		{
			name:   "expense becomes income",
			stored: Transaction{Type: TransactionTypeExpense, Amount: decimal.NewFromInt(30)},
			update: Transaction{Type: TransactionTypeIncome, Amount: decimal.NewFromInt(30)},
			want:   60,
		},
		{
			name:   "income becomes larger expense",
			stored: Transaction{Type: TransactionTypeIncome, Amount: decimal.NewFromInt(10)},
			update: Transaction{Type: TransactionTypeExpense, Amount: decimal.NewFromInt(25)},
			want:   -35,
		},
		{
			name:   "unchanged",
			stored: Transaction{Type: TransactionTypeExpense, Amount: decimal.NewFromInt(5)},
			update: Transaction{Type: TransactionTypeExpense, Amount: decimal.NewFromInt(5)},
			want:   0,
		},
	}

	for _, c := range cases {
		got := Adjustment(&c.stored, &c.update)
		if !got.Equal(decimal.NewFromInt(c.want)) {
			t.Fatalf("%s: want %d got %s", c.name, c.want, got)
		}
	}
}

func TestValidateTransactionFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	valid := TransactionFields{
		Amount:      decimal.NewFromInt(10),
		Description: "Lunch",
		Category:    CategoryFood,
		Type:        TransactionTypeExpense,
		Date:        now,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if err := valid.ValidateNew(""); err == nil {
		t.Fatal("expected missing account to be rejected")
	}

	invalid := TransactionFields{
		Amount:      decimal.RequireFromString("0.00001"),
		Description: " ",
		Category:    Category("rent"),
		Type:        TransactionType("refund"),
	}
	invalid.Normalize()
	err := invalid.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 5 {
		t.Fatalf("expected 5 issues, got %d: %v", len(verr.Issues), err)
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation kind, got %s", KindOf(err))
	}
}

func TestValidateAccountFields(t *testing.T) {
	if err := (AccountFields{Name: "Main", Type: AccountTypeChecking}).Validate(); err != nil {
		t.Fatalf("expected valid account, got %v", err)
	}
	if err := (AccountFields{Type: AccountTypeChecking}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (AccountFields{Name: "Main", Type: AccountType("brokerage")}).Validate(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrUnauthorized, KindUnauthorized},
		{fmt.Errorf("lookup: %w", ErrAccountNotFound), KindNotFound},
		{ErrTransactionNotFound, KindNotFound},
		{&StorageError{Op: "update balance", Err: ErrConcurrentUpdate}, KindStorage},
		{errors.New("boom"), KindStorage},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Fatalf("KindOf(%v): want %s got %s", c.err, c.want, got)
		}
	}
}
