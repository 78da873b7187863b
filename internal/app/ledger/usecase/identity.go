package usecase

import (
	"context"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
)

type userIDKey struct{}

// WithUserID 將已驗證的使用者 ID 放進 request-scoped context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom 取出使用者 ID，沒有 session 時回傳 domain.ErrUnauthorized
func UserIDFrom(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	if !ok || userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}
