package rdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	"github.com/JoeShih716/go-finance-ledger/pkg/token"
)

// SessionPrefix 所有 session token 的前綴
const SessionPrefix = "sess_"

// EnsureUser 建立使用者，已存在時不做任何事
func (s *Store) EnsureUser(ctx context.Context, userID, email string) error {
	user := sqlUser{ID: userID, Email: email, CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	return wrap("ensure user", err)
}

// IssueSession 為使用者簽發新的 session token
//
// 參數:
//
//	ctx: 上下文
//	userID: 使用者 ID，不存在時會先建立
//	ttl: 有效期限
//
// 回傳值:
//
//	string: 原始 token，只在這裡出現一次，資料庫只保存其 sha256
//	error: 產生亂數或寫入失敗
func (s *Store) IssueSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	raw, hash, err := token.Generate(SessionPrefix)
	if err != nil {
		return "", err
	}

	if err := s.EnsureUser(ctx, userID, ""); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	session := sqlSession{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&session).Error; err != nil {
		return "", wrap("issue session", err)
	}
	return raw, nil
}

// Authenticate 將 token 解析為使用者 ID，不存在或已過期回傳 ErrUnauthorized
func (s *Store) Authenticate(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", domain.ErrUnauthorized
	}
	var session sqlSession
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", token.Hash(raw), time.Now().UTC()).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", wrap("authenticate", err)
	}
	return session.UserID, nil
}

// RevokeSession 使 token 立即失效
func (s *Store) RevokeSession(ctx context.Context, raw string) error {
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", token.Hash(raw)).
		Delete(&sqlSession{}).Error
	return wrap("revoke session", err)
}

var _ usecase.Authenticator = (*Store)(nil)
