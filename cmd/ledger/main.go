package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-finance-ledger/internal/app/ledger/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-finance-ledger/internal/app/ledger/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-finance-ledger/internal/app/ledger/adapter/out/memory"
	rdb_adapter "github.com/JoeShih716/go-finance-ledger/internal/app/ledger/adapter/out/rdb"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	"github.com/JoeShih716/go-finance-ledger/internal/config"
	"github.com/JoeShih716/go-finance-ledger/pkg/database"
	"github.com/JoeShih716/go-finance-ledger/pkg/journal"
)

// sessionIssuer 可以簽發 session 的 Authenticator
type sessionIssuer interface {
	usecase.Authenticator
	IssueSession(ctx context.Context, userID string, ttl time.Duration) (string, error)
}

func main() {
	configPath := flag.String("config", envOr("LEDGER_CONFIG", "config/config.yaml"), "path to the YAML config file")
	issueFor := flag.String("issue-session", "", "issue a session token for the user id, print it and exit")
	devUser := flag.String("dev-user", "", "issue a session for the user id at startup and log it")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Logger
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	// 3. 儲存層
	var (
		store    usecase.Store
		sessions sessionIssuer
		closeDB  = func() error { return nil }
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = memory_adapter.NewStore()
		sessions = memory_adapter.NewSessions()
		logger.Warn("using in-memory store, data is lost on exit")
	default:
		dbClient, err := database.NewClient(cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
			os.Exit(1)
		}
		closeDB = dbClient.Close
		rdbStore := rdb_adapter.NewStore(dbClient.DB())
		if err := rdbStore.Migrate(context.Background()); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		store, sessions = rdbStore, rdbStore
		logger.Info("connected to database", "driver", cfg.Database.Driver)
	}
	defer closeDB()

	// -issue-session: 代替外部身分服務簽發 token
	if *issueFor != "" {
		if cfg.Database.Driver == config.DriverMemory {
			logger.Error("-issue-session needs a database driver; use -dev-user with the memory driver")
			os.Exit(1)
		}
		token, err := sessions.IssueSession(context.Background(), *issueFor, cfg.Session.TTL)
		if err != nil {
			logger.Error("failed to issue session", "user_id", *issueFor, "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// 4. 稽核紀錄
	opts := []usecase.Option{usecase.WithLogger(logger)}
	if cfg.Journal.Path != "" {
		journalFile, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
			os.Exit(1)
		}
		defer journalFile.Close()
		opts = append(opts, usecase.WithJournal(journalFile))
	}

	// 5. UseCase
	ledger := usecase.NewLedgerUseCase(store, opts...)

	if *devUser != "" {
		token, err := sessions.IssueSession(context.Background(), *devUser, cfg.Session.TTL)
		if err != nil {
			logger.Error("failed to issue dev session", "user_id", *devUser, "error", err)
			os.Exit(1)
		}
		logger.Info("dev session issued", "user_id", *devUser, "token", token)
	}

	// 6. gRPC Server
	var grpcServer *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			logger.Error("failed to listen", "addr", cfg.GRPC.Addr, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(
			grpc_adapter.LoggingInterceptor(logger),
			grpc_adapter.AuthInterceptor(sessions),
		))
		grpc_adapter.RegisterLedgerServiceServer(grpcServer, grpc_adapter.NewGrpcServer(ledger))
		reflection.Register(grpcServer)

		go func() {
			logger.Info("starting gRPC server", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server stopped", "error", err)
			}
		}()
	}

	// 7. HTTP Server
	app := http_adapter.NewApp(http_adapter.NewLedgerHandler(ledger), sessions, logger)
	if cfg.HTTP.Addr != "" {
		go func() {
			logger.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
			if err := app.Listen(cfg.HTTP.Addr); err != nil {
				logger.Error("HTTP server stopped", "error", err)
			}
		}()
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("server exited")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
