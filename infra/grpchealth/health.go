package grpchealth

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"reload-gateway/internal/core/domain/ports"
)

const channelPrefix = "channel."

// ServiceName returns the health service name reported for a channel,
// e.g. "channel.SMART".
func ServiceName(h ports.ChannelHandle) string {
	return channelPrefix + string(h.Network)
}

// Reporter mirrors channel availability into the standard gRPC health
// service so that load balancers and probes can watch each SIM.
type Reporter struct {
	health   *health.Server
	channels ports.CapabilityProvider
	logger   *slog.Logger
}

func NewReporter(channels ports.CapabilityProvider, logger *slog.Logger) *Reporter {
	return &Reporter{
		health:   health.NewServer(),
		channels: channels,
		logger:   logger,
	}
}

// Register attaches the health and reflection services to s.
func (r *Reporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)
}

func (r *Reporter) Refresh(ctx context.Context) {
	channels, err := r.channels.Channels(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read channels for health",
			slog.String("error", err.Error()),
		)
		r.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}

	anyServing := false
	for _, ch := range channels {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if ch.Available {
			status = healthpb.HealthCheckResponse_SERVING
			anyServing = true
		}
		r.health.SetServingStatus(ServiceName(ch), status)
	}

	if anyServing {
		r.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	} else {
		r.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Run refreshes once, then again on every tick until ctx is done.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) {
	r.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING. Later refreshes are ignored.
func (r *Reporter) Shutdown() {
	r.health.Shutdown()
}

// StopServer drains srv gracefully until ctx is done and then closes every
// connection. Open Watch streams never end on their own, so a graceful stop
// alone can block forever. It reports whether the drain finished in time.
func StopServer(ctx context.Context, srv *grpc.Server) bool {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		srv.Stop()
		<-done
		return false
	}
}
