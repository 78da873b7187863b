package rdb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
)

// sqlUser 對應資料庫的 users 表，帳戶與交易的外鍵目標
type sqlUser struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Email     string    `gorm:"type:varchar(255);index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (*sqlUser) TableName() string {
	return "users"
}

// sqlSession 對應資料庫的 sessions 表，只保存 token 的 sha256
type sqlSession struct {
	TokenHash string    `gorm:"primaryKey;type:char(64)"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	User      sqlUser   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (*sqlSession) TableName() string {
	return "sessions"
}

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Type      string          `gorm:"type:varchar(32);not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Bank      *string         `gorm:"type:varchar(255)"`
	UserID    string          `gorm:"type:varchar(36);not null;index"`
	User      sqlUser         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Version   int64           `gorm:"not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false;index"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime:false"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Category    string          `gorm:"type:varchar(32);not null"`
	Type        string          `gorm:"type:varchar(16);not null"`
	Date        time.Time       `gorm:"not null;index"`
	AccountID   string          `gorm:"type:varchar(36);not null;index"`
	Account     sqlAccount      `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	UserID      string          `gorm:"type:varchar(36);not null;index"`
	User        sqlUser         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime:false"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func toSQLAccount(a *domain.Account) *sqlAccount {
	row := &sqlAccount{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		UserID:    a.UserID,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Bank != "" {
		bank := a.Bank
		row.Bank = &bank
	}
	return row
}

func (r *sqlAccount) toDomain() *domain.Account {
	a := &domain.Account{
		ID:        r.ID,
		Name:      r.Name,
		Type:      domain.AccountType(r.Type),
		Balance:   r.Balance,
		UserID:    r.UserID,
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Bank != nil {
		a.Bank = *r.Bank
	}
	return a
}

func toSQLTransaction(t *domain.Transaction) *sqlTransaction {
	return &sqlTransaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    string(t.Category),
		Type:        string(t.Type),
		Date:        t.Date,
		AccountID:   t.AccountID,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *sqlTransaction) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:          r.ID,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Type:        domain.TransactionType(r.Type),
		Date:        r.Date.UTC(),
		AccountID:   r.AccountID,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// bankValue 空字串寫成 NULL
func bankValue(bank string) any {
	if bank == "" {
		return nil
	}
	return bank
}
