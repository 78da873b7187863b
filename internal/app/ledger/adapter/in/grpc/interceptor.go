package grpc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

// AuthInterceptor 從 metadata 的 authorization: Bearer <token> 解析使用者
//
// 成功時把使用者 ID 放進 context (usecase.WithUserID)，失敗回傳 codes.Unauthenticated。
func AuthInterceptor(auth usecase.Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		token := bearerToken(ctx)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		userID, err := auth.Authenticate(ctx, token)
		if err != nil {
			if domain.KindOf(err) == domain.KindUnauthorized {
				return nil, status.Error(codes.Unauthenticated, "invalid or expired session")
			}
			return nil, status.Error(codes.Internal, "failed to verify session")
		}
		return handler(usecase.WithUserID(ctx, userID), req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get("authorization") {
		if token, found := strings.CutPrefix(value, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// LoggingInterceptor 記錄每個請求的方法、耗時與狀態碼
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.LogAttrs(ctx, slog.LevelDebug, "grpc request",
			slog.String("method", info.FullMethod),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("code", status.Code(err).String()),
		)
		return resp, err
	}
}
