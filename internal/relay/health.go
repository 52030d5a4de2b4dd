package relay

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the fully-qualified gRPC service name the health
// probe reports on, matching RelayService's proto package.
const ServiceName = "relay.v1.RelayService"

// NewHealthServer builds the standard gRPC health service and marks
// both the empty (overall) service and RelayService serving. Register
// it against the same grpc.Server as GRPCServer with
// healthpb.RegisterHealthServer.
func NewHealthServer() *health.Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return h
}
