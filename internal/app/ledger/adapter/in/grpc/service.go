package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	rpc "github.com/JoeShih716/go-finance-ledger/pkg/grpc"
)

// ServiceName gRPC 服務全名
const ServiceName = "ledger.v1.LedgerService"

// Reply 所有回應共用的狀態欄位
//
// 業務錯誤 (驗證失敗、找不到資料) 以 Success=false 回傳，不使用 gRPC status。
type Reply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type ListAccountsRequest struct{}

type ListTransactionsRequest struct {
	AccountID string `json:"accountId,omitempty"`
}

// IDRequest 刪除帳戶或交易
type IDRequest struct {
	ID string `json:"id"`
}

type AccountReply struct {
	Reply
	Account *domain.Account `json:"account,omitempty"`
}

type AccountsReply struct {
	Reply
	Accounts []domain.Account `json:"accounts"`
}

type TransactionReply struct {
	Reply
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

type TransactionsReply struct {
	Reply
	Transactions []domain.Transaction `json:"transactions"`
}

// LedgerServiceServer 帳本服務的伺服器端介面
type LedgerServiceServer interface {
	CreateAccount(context.Context, *usecase.AccountInput) (*AccountReply, error)
	ListAccounts(context.Context, *ListAccountsRequest) (*AccountsReply, error)
	UpdateAccount(context.Context, *usecase.AccountUpdate) (*AccountReply, error)
	DeleteAccount(context.Context, *IDRequest) (*Reply, error)
	CreateTransaction(context.Context, *usecase.TransactionInput) (*TransactionReply, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*TransactionsReply, error)
	UpdateTransaction(context.Context, *usecase.TransactionUpdate) (*TransactionReply, error)
	DeleteTransaction(context.Context, *IDRequest) (*Reply, error)
}

// LedgerServiceDesc 手寫的 ServiceDesc，訊息以 JSON codec 編碼
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateAccount", LedgerServiceServer.CreateAccount),
		unary("ListAccounts", LedgerServiceServer.ListAccounts),
		unary("UpdateAccount", LedgerServiceServer.UpdateAccount),
		unary("DeleteAccount", LedgerServiceServer.DeleteAccount),
		unary("CreateTransaction", LedgerServiceServer.CreateTransaction),
		unary("ListTransactions", LedgerServiceServer.ListTransactions),
		unary("UpdateTransaction", LedgerServiceServer.UpdateTransaction),
		unary("DeleteTransaction", LedgerServiceServer.DeleteTransaction),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger",
}

// RegisterLedgerServiceServer 將服務註冊到 gRPC Server
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary 產生單一請求方法的 MethodDesc
func unary[Req, Resp any](name string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerServiceClient 帳本服務的客戶端
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(rpc.CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerServiceClient) CreateAccount(ctx context.Context, in *usecase.AccountInput, opts ...grpc.CallOption) (*AccountReply, error) {
	return invoke[AccountReply](ctx, c.cc, "CreateAccount", in, opts)
}

func (c *LedgerServiceClient) ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*AccountsReply, error) {
	return invoke[AccountsReply](ctx, c.cc, "ListAccounts", in, opts)
}

func (c *LedgerServiceClient) UpdateAccount(ctx context.Context, in *usecase.AccountUpdate, opts ...grpc.CallOption) (*AccountReply, error) {
	return invoke[AccountReply](ctx, c.cc, "UpdateAccount", in, opts)
}

func (c *LedgerServiceClient) DeleteAccount(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Reply, error) {
	return invoke[Reply](ctx, c.cc, "DeleteAccount", in, opts)
}

func (c *LedgerServiceClient) CreateTransaction(ctx context.Context, in *usecase.TransactionInput, opts ...grpc.CallOption) (*TransactionReply, error) {
	return invoke[TransactionReply](ctx, c.cc, "CreateTransaction", in, opts)
}

func (c *LedgerServiceClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*TransactionsReply, error) {
	return invoke[TransactionsReply](ctx, c.cc, "ListTransactions", in, opts)
}

func (c *LedgerServiceClient) UpdateTransaction(ctx context.Context, in *usecase.TransactionUpdate, opts ...grpc.CallOption) (*TransactionReply, error) {
	return invoke[TransactionReply](ctx, c.cc, "UpdateTransaction", in, opts)
}

func (c *LedgerServiceClient) DeleteTransaction(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Reply, error) {
	return invoke[Reply](ctx, c.cc, "DeleteTransaction", in, opts)
}
