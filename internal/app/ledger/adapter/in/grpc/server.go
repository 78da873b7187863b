package grpc

import (
	"context"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
)

type GrpcServer struct {
	ledger *usecase.LedgerUseCase
}

func NewGrpcServer(ledger *usecase.LedgerUseCase) *GrpcServer {
	return &GrpcServer{
		ledger: ledger,
	}
}

func succeeded() Reply {
	return Reply{Success: true}
}

// failed 業務錯誤回傳 Success=false (Soft Failure)
func failed(op usecase.Op, err error) Reply {
	message, details := usecase.Describe(op, err)
	return Reply{Message: message, Details: details}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *usecase.AccountInput) (*AccountReply, error) {
	account, err := s.ledger.CreateAccount(ctx, *req)
	if err != nil {
		return &AccountReply{Reply: failed(usecase.OpCreateAccount, err)}, nil
	}
	return &AccountReply{Reply: succeeded(), Account: account}, nil
}

func (s *GrpcServer) ListAccounts(ctx context.Context, _ *ListAccountsRequest) (*AccountsReply, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return &AccountsReply{Reply: failed(usecase.OpListAccounts, err)}, nil
	}
	return &AccountsReply{Reply: succeeded(), Accounts: accounts}, nil
}

func (s *GrpcServer) UpdateAccount(ctx context.Context, req *usecase.AccountUpdate) (*AccountReply, error) {
	account, err := s.ledger.UpdateAccount(ctx, *req)
	if err != nil {
		return &AccountReply{Reply: failed(usecase.OpUpdateAccount, err)}, nil
	}
	return &AccountReply{Reply: succeeded(), Account: account}, nil
}

func (s *GrpcServer) DeleteAccount(ctx context.Context, req *IDRequest) (*Reply, error) {
	if err := s.ledger.DeleteAccount(ctx, req.ID); err != nil {
		reply := failed(usecase.OpDeleteAccount, err)
		return &reply, nil
	}
	reply := succeeded()
	return &reply, nil
}

func (s *GrpcServer) CreateTransaction(ctx context.Context, req *usecase.TransactionInput) (*TransactionReply, error) {
	tran, err := s.ledger.CreateTransaction(ctx, *req)
	if err != nil {
		return &TransactionReply{Reply: failed(usecase.OpCreateTransaction, err)}, nil
	}
	return &TransactionReply{Reply: succeeded(), Transaction: tran}, nil
}

func (s *GrpcServer) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*TransactionsReply, error) {
	trans, err := s.ledger.ListTransactions(ctx, req.AccountID)
	if err != nil {
		return &TransactionsReply{Reply: failed(usecase.OpListTransactions, err)}, nil
	}
	return &TransactionsReply{Reply: succeeded(), Transactions: trans}, nil
}

func (s *GrpcServer) UpdateTransaction(ctx context.Context, req *usecase.TransactionUpdate) (*TransactionReply, error) {
	tran, err := s.ledger.UpdateTransaction(ctx, *req)
	if err != nil {
		return &TransactionReply{Reply: failed(usecase.OpUpdateTransaction, err)}, nil
	}
	return &TransactionReply{Reply: succeeded(), Transaction: tran}, nil
}

func (s *GrpcServer) DeleteTransaction(ctx context.Context, req *IDRequest) (*Reply, error) {
	if err := s.ledger.DeleteTransaction(ctx, req.ID); err != nil {
		reply := failed(usecase.OpDeleteTransaction, err)
		return &reply, nil
	}
	reply := succeeded()
	return &reply, nil
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
