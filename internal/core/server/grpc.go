// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/solatis/expectree/internal/core/config"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

// ServiceName is the health service that mirrors the root status. The
// overall ("") service reports the same value.
const ServiceName = "expectree.Root"

// GRPCServer serves the standard health protocol for one attached tree:
// SERVING while the root is PASSED, NOT_SERVING otherwise. Clients can
// block on Watch until the expectations settle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	config   config.ServeConfig
	logger   *slog.Logger
	stop     func()
}

// NewGRPCServer creates the server and starts mirroring t.
func NewGRPCServer(cfg config.ServeConfig, t *state.Tree, logger *slog.Logger) (*GRPCServer, error) {
	if t == nil {
		return nil, fmt.Errorf("tree cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	s := &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}
	s.setStatus(t.Status())
	s.stop = t.Subscribe(func(ev state.Event) {
		s.setStatus(ev.Snapshot.Status)
	})
	return s, nil
}

// ServingStatus maps a root status onto the health protocol.
func ServingStatus(st types.Status) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if st == types.StatusPassed {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

func (s *GRPCServer) setStatus(st types.Status) {
	serving := ServingStatus(st)
	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(ServiceName, serving)
	s.logger.Debug("health status updated", "root", st, "serving", serving.String())
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener
	return s.server.Serve(listener)
}

// Shutdown gracefully stops server with 30-second timeout.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.stop()
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(30 * time.Second):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
