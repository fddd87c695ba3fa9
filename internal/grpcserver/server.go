// Package grpcserver поднимает служебный gRPC-сервер: health-check и reflection.
// Доменные операции доступны только по HTTP.
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/rollcall/internal/logging"
)

// ServiceName — имя сервиса в health-протоколе.
const ServiceName = "rollcall.v1.RollCall"

// PingFunc проверяет доступность зависимостей (БД).
type PingFunc func(ctx context.Context) error

// Server объединяет gRPC-сервер и health-сервис.
type Server struct {
	GRPC   *grpc.Server
	Health *health.Server

	ping   PingFunc
	logger *slog.Logger
}

// New создаёт сервер и регистрирует health и reflection.
func New(logger *slog.Logger, ping PingFunc) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{GRPC: gs, Health: hs, ping: ping, logger: logger}
	s.Check(context.Background())
	return s
}

// Check пингует зависимости и выставляет статус для общего и именованного сервиса.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "health ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.Health.SetServingStatus("", st)
	s.Health.SetServingStatus(ServiceName, st)
	return st
}

// Monitor периодически обновляет статус до отмены ctx.
func (s *Server) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			s.Check(pingCtx)
			cancel()
		}
	}
}

// Stop переводит сервисы в NOT_SERVING и мягко останавливает сервер.
func (s *Server) Stop() {
	s.Health.Shutdown()
	s.GRPC.GracefulStop()
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = logging.ContextWithLogger(ctx, logger.With("grpc_method", info.FullMethod))
		resp, err := handler(ctx, req)
		logging.FromContext(ctx).DebugContext(ctx, "grpc call",
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
