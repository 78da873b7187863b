package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType 帳戶類型 (封閉集合)
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeOther      AccountType = "other"
)

// AccountTypes 依顯示順序列出所有帳戶類型
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCredit,
	AccountTypeInvestment,
	AccountTypeCash,
	AccountTypeOther,
}

func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Account 使用者的金融帳戶
//
// Balance 等於最後一次直接設定的值加上之後所有交易的帶號金額。
// Version 每次寫入都會遞增，用於偵測 lost update。
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Bank      string          `json:"bank,omitempty"`
	UserID    string          `json:"userId"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountFields 帳戶可由使用者編輯的欄位，更新時為整組覆寫
type AccountFields struct {
	Name    string          `json:"name"`
	Type    AccountType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	Bank    string          `json:"bank,omitempty"`
}

// Normalize 將餘額四捨五入到 AmountScale
func (f *AccountFields) Normalize() {
	f.Balance = NormalizeAmount(f.Balance)
}

func (f AccountFields) Validate() error {
	var v validator
	v.check(strings.TrimSpace(f.Name) != "", "name", "Account name is required")
	v.check(f.Type.Valid(), "type", "Invalid account type")
	return v.err()
}

// Assign 以 fields 覆寫帳戶的可編輯欄位 (包含直接覆寫餘額)
func (a *Account) Assign(f AccountFields) {
	a.Name = f.Name
	a.Type = f.Type
	a.Balance = f.Balance
	a.Bank = f.Bank
}

// Apply 將帶號金額套用到餘額
func (a *Account) Apply(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
}
