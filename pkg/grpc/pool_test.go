package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
)

func TestPoolReusesConnectionPerTarget(t *testing.T) {
	p := NewPool()
	defer p.Close()

	first, err := p.GetConnection("passthrough:///ledger-a")
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	again, _ := p.GetConnection("passthrough:///ledger-a")
	if first != again {
		t.Fatal("expected the same connection for the same target")
	}
	other, _ := p.GetConnection("passthrough:///ledger-b")
	if other == first {
		t.Fatal("expected a separate connection per target")
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	fresh, _ := p.GetConnection("passthrough:///ledger-a")
	if fresh == first {
		t.Fatal("expected a new connection after Close")
	}
}

func TestBearerTokenInterceptor(t *testing.T) {
	var got []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get("authorization")
		return nil
	}
	if err := BearerToken("sess_abc")(context.Background(), "/ledger.v1.LedgerService/ListAccounts", nil, nil, nil, invoker); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if len(got) != 1 || got[0] != "Bearer sess_abc" {
		t.Fatalf("unexpected authorization metadata %v", got)
	}
}

func TestJSONCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	if codec == nil {
		t.Fatal("json codec not registered")
	}
	data, err := codec.Marshal(map[string]string{"id": "acc-1"})
	if err != nil || string(data) != `{"id":"acc-1"}` {
		t.Fatalf("marshal: %s %v", data, err)
	}
}
