package qatracker

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthServer отдаёт стандартный gRPC Health Checking Protocol.
type healthServer struct {
	grpcServer *grpc.Server
	status     *health.Server
	listener   net.Listener
	logger     *slog.Logger
}

func newHealthServer(address string, logger *slog.Logger) (*healthServer, error) {
	const op = "qatracker.newHealthServer"

	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grpcServer := grpc.NewServer()
	status := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, status)

	return &healthServer{
		grpcServer: grpcServer,
		status:     status,
		listener:   lis,
		logger:     logger,
	}, nil
}

// Addr возвращает фактический адрес слушателя.
func (h *healthServer) Addr() string {
	return h.listener.Addr().String()
}

func (h *healthServer) run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		h.logger.Info("gRPC health service listening on", slog.String("address", h.Addr()))
		h.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		errCh <- h.grpcServer.Serve(h.listener)
	}()

	select {
	case <-ctx.Done():
		h.status.Shutdown()
		h.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
