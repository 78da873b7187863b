package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	"github.com/JoeShih716/go-finance-ledger/pkg/token"
)

// SessionPrefix 與資料庫版本相同的 token 前綴
const SessionPrefix = "sess_"

type session struct {
	userID    string
	expiresAt time.Time
}

// Sessions 記憶體版的 session 簿，只保存 token 雜湊，重啟後全部失效
type Sessions struct {
	mu     sync.RWMutex
	byHash map[string]session
	now    func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		byHash: make(map[string]session),
		now:    time.Now,
	}
}

func (s *Sessions) IssueSession(_ context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	raw, hash, err := token.Generate(SessionPrefix)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[hash] = session{userID: userID, expiresAt: s.now().Add(ttl)}
	return raw, nil
}

func (s *Sessions) Authenticate(_ context.Context, raw string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byHash[token.Hash(raw)]
	if !ok || !s.now().Before(sess.expiresAt) {
		return "", domain.ErrUnauthorized
	}
	return sess.userID, nil
}

func (s *Sessions) RevokeSession(_ context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, token.Hash(raw))
	return nil
}

var _ usecase.Authenticator = (*Sessions)(nil)
