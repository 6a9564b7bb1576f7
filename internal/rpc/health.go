// Package rpc exposes the gRPC health service used by load balancers and
// reader firmware to decide whether the access server can take requests.
package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AccessService is the health service name for access validation.
const AccessService = "safeway.access"

// CheckFunc reports whether the backing store can serve requests.
type CheckFunc func(ctx context.Context) error

type Health struct {
	srv      *health.Server
	check    CheckFunc
	interval time.Duration
	logger   *zap.Logger
}

func NewHealth(check CheckFunc, interval time.Duration, logger *zap.Logger) *Health {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := health.NewServer()
	srv.SetServingStatus(AccessService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{srv: srv, check: check, interval: interval, logger: logger.Named("health")}
}

func (h *Health) Register(s grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Probe runs the check once and publishes the result.
func (h *Health) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("health check failed", zap.Error(err))
	}
	h.srv.SetServingStatus(AccessService, status)
	h.srv.SetServingStatus("", status)
	return status
}

// Run probes immediately and then on every interval until ctx is done, at
// which point all services are marked NOT_SERVING.
func (h *Health) Run(ctx context.Context) {
	h.Probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// NewServer returns a gRPC server with request logging and the health
// service registered.
func NewServer(h *Health, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger.Named("grpc"))))
	h.Register(s)
	return s
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc request",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return resp, err
	}
}
