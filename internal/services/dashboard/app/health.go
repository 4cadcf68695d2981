package app

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name of the dashboard.
const HealthService = "pm25-dashboard"

// SyncHealth publishes source readiness on the gRPC health server.
func (d *Dashboard) SyncHealth(hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if d.Ready() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(HealthService, st)
	// "" = processo vivo
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return st
}

// WatchHealth refreshes the gRPC status every period until ctx is done.
func (d *Dashboard) WatchHealth(ctx context.Context, hs *health.Server, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	last := d.SyncHealth(hs)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			if st := d.SyncHealth(hs); st != last {
				d.log.Info().Str("service", HealthService).Str("status", st.String()).Msg("health status changed")
				last = st
			}
		}
	}
}
