package server

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func dialTestServer(t *testing.T, svc *ExtractionService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s, _ := NewGRPCServer(svc, nil)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCProcessDocument(t *testing.T) {
	svc, _ := newTestService()
	client := NewExtractionClient(dialTestServer(t, svc))
	ctx := context.Background()

	out, err := client.ProcessDocument(ctx, wrapperspb.String("incoming/a.pdf"))
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	m := out.AsMap()
	if m["contract_id"] != "CTR-2024-001" {
		t.Errorf("contract_id = %v", m["contract_id"])
	}
	rates, ok := m["rate_schedules"].([]any)
	if !ok || len(rates) != 1 || rates[0].(map[string]any)["rate_amount"] != 125.5 {
		t.Errorf("rate_schedules = %v", m["rate_schedules"])
	}

	tests := []struct {
		key  string
		want codes.Code
	}{
		{"", codes.InvalidArgument},
		{"missing.pdf", codes.NotFound},
		{"blank.pdf", codes.FailedPrecondition},
	}
	for _, tt := range tests {
		_, err := client.ProcessDocument(ctx, wrapperspb.String(tt.key))
		if status.Code(err) != tt.want {
			t.Errorf("key %q: code = %v, want %v", tt.key, status.Code(err), tt.want)
		}
	}
}

func TestGRPCSubmitEvent(t *testing.T) {
	svc, q := newTestService()
	client := NewExtractionClient(dialTestServer(t, svc))
	ctx := context.Background()

	ev, err := structpb.NewStruct(map[string]any{
		"Records": []any{
			map[string]any{"s3": map[string]any{"bucket": map[string]any{"name": "raw"}, "object": map[string]any{"key": "a.pdf"}}},
			map[string]any{"s3": map[string]any{"bucket": map[string]any{"name": "raw"}, "object": map[string]any{"key": "b.docx"}}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	n, err := client.SubmitEvent(ctx, ev)
	if err != nil {
		t.Fatalf("SubmitEvent: %v", err)
	}
	if n.GetValue() != 1 || len(q.keys()) != 1 || q.keys()[0] != "a.pdf" {
		t.Errorf("queued %d, keys %v", n.GetValue(), q.keys())
	}

	bad, _ := structpb.NewStruct(map[string]any{"Records": "nope"})
	if _, err := client.SubmitEvent(ctx, bad); status.Code(err) != codes.InvalidArgument {
		t.Errorf("bad event code = %v", status.Code(err))
	}

	q.Shutdown(ctx)
	if _, err := client.SubmitEvent(ctx, ev); status.Code(err) != codes.Unavailable {
		t.Errorf("closed queue code = %v", status.Code(err))
	}
}

func TestGRPCHealth(t *testing.T) {
	svc, _ := newTestService()
	conn := dialTestServer(t, svc)

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: ExtractionServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.GetStatus())
	}
}
