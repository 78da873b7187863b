package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale 金額保留的小數位數
const AmountScale = 4

// TransactionType 交易方向
type TransactionType string

const (
	// 收入
	TransactionTypeIncome TransactionType = "income"
	// 支出
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Category 交易分類 (封閉集合)
type Category string

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryBills          Category = "bills"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategorySalary         Category = "salary"
	CategoryInvestment     Category = "investment"
	CategoryTransfer       Category = "transfer"
	CategoryOther          Category = "other"
)

var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryHealthcare,
	CategoryEducation,
	CategorySalary,
	CategoryInvestment,
	CategoryTransfer,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Transaction 一筆收入或支出
//
// Amount 永遠是非負的金額大小，方向由 Type 決定。
// Date 是使用者輸入的邏輯日期，與建立時間無關，也不影響餘額。
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"accountId"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Delta 這筆交易對帳戶餘額的影響: 收入 +amount，支出 -amount
func (t *Transaction) Delta() decimal.Decimal {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Reversal 刪除這筆交易時要套用的金額
func (t *Transaction) Reversal() decimal.Decimal {
	return t.Delta().Neg()
}

// Adjustment 以儲存中的舊值與新值計算餘額調整量
func Adjustment(stored, updated *Transaction) decimal.Decimal {
	return updated.Delta().Sub(stored.Delta())
}

// NormalizeAmount 將金額四捨五入到 AmountScale
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountScale)
}

// TransactionFields 交易可由使用者編輯的欄位
type TransactionFields struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
}

// Normalize 將金額四捨五入到 AmountScale，需在 Validate 之前呼叫
func (f *TransactionFields) Normalize() {
	f.Amount = NormalizeAmount(f.Amount)
}

func (f TransactionFields) Validate() error {
	var v validator
	f.check(&v)
	return v.err()
}

// ValidateNew 建立交易時另外要求 accountID
func (f TransactionFields) ValidateNew(accountID string) error {
	var v validator
	f.check(&v)
	v.check(strings.TrimSpace(accountID) != "", "accountId", "Account is required")
	return v.err()
}

func (f TransactionFields) check(v *validator) {
	v.check(f.Amount.IsPositive(), "amount", "Amount must be greater than 0")
	v.check(strings.TrimSpace(f.Description) != "", "description", "Description is required")
	v.check(f.Category.Valid(), "category", "Invalid category")
	v.check(f.Type.Valid(), "type", "Invalid transaction type")
	v.check(!f.Date.IsZero(), "date", "Date is required")
}

// Assign 以 fields 覆寫交易內容，不改變所屬帳戶
func (t *Transaction) Assign(f TransactionFields) {
	t.Amount = f.Amount
	t.Description = f.Description
	t.Category = f.Category
	t.Type = f.Type
	t.Date = f.Date
}
