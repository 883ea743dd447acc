package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solatis/expectree/internal/core/config"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

func newTree(t *testing.T) *state.Tree {
	t.Helper()
	a := tree.NewExpectation("a", types.NewSpec("demo", nil), types.Metadata{})
	b := tree.NewExpectation("b", types.NewSpec("demo", nil), types.Metadata{})
	root, err := tree.NewRoot(tree.NewAnd(a, b))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	st, err := state.Attach(root)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	return st
}

func TestServingStatus(t *testing.T) {
	tests := []struct {
		in   types.Status
		want grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{types.StatusPassed, grpc_health_v1.HealthCheckResponse_SERVING},
		{types.StatusFailed, grpc_health_v1.HealthCheckResponse_NOT_SERVING},
		{types.StatusPending, grpc_health_v1.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		if got := ServingStatus(tt.in); got != tt.want {
			t.Errorf("ServingStatus(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHealthMirrorsRoot(t *testing.T) {
	tr := newTree(t)
	srv, err := NewGRPCServer(config.Default().Serve, tr, nil)
	if err != nil {
		t.Fatalf("NewGRPCServer failed: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	defer srv.Shutdown(context.Background())

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		return resp.GetStatus()
	}

	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("pending tree status = %v, want NOT_SERVING", got)
	}

	if err := tr.Update(map[types.NodeID]types.Status{"a": types.StatusPassed, "b": types.StatusPassed}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("passed tree status = %v, want SERVING", got)
	}

	if err := tr.Reject("b"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("failed tree status = %v, want NOT_SERVING", got)
	}
}

func TestNewGRPCServerNilTree(t *testing.T) {
	if _, err := NewGRPCServer(config.Default().Serve, nil, nil); err == nil {
		t.Error("expected error for nil tree")
	}
}
