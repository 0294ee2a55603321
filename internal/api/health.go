package api

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"signal-core/internal/events"
)

// FeedService is the gRPC health service name tracking market feed state.
const FeedService = "signal-core.feed"

// HealthServer exposes grpc.health.v1. The overall status is SERVING while
// the process runs; FeedService follows feed connectivity.
type HealthServer struct {
	srv *grpc.Server
	hs  *health.Server
	log zerolog.Logger
}

func NewHealthServer(log zerolog.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(FeedService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{srv: srv, hs: hs, log: log.With().Str("component", "grpc_health").Logger()}
}

// SetFeed updates the feed service status.
func (h *HealthServer) SetFeed(up bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if up {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus(FeedService, st)
}

// Watch mirrors feed status events until ctx is done.
func (h *HealthServer) Watch(ctx context.Context, bus *events.Bus) {
	ch, unsub := bus.Subscribe(events.EventFeedStatus, 16)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if st, ok := msg.(events.FeedStatus); ok {
				h.SetFeed(st.Connected)
			}
		}
	}
}

// Serve listens on addr until ctx is done.
func (h *HealthServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is done.
func (h *HealthServer) ServeListener(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		h.hs.Shutdown()
		h.srv.GracefulStop()
	}()
	h.log.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
	return h.srv.Serve(lis)
}
