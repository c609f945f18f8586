package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/usecase/catalog"
	"github.com/simaogato/wealthflow-projection/internal/usecase/projection"
)

// Server implements the ProjectionService gRPC server
type Server struct {
	ProjectionService *projection.ProjectionService
	CatalogService    *catalog.CatalogService
}

// NewServer creates a new gRPC server instance
func NewServer(projectionService *projection.ProjectionService, catalogService *catalog.CatalogService) *Server {
	return &Server{
		ProjectionService: projectionService,
		CatalogService:    catalogService,
	}
}

// NewGRPCServer builds a grpc.Server with logging, panic recovery, auth and tracing, and registers
// the projection, health and reflection services on it
func NewGRPCServer(srv *Server, apiToken string, log zerolog.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(log),
			RecoveryInterceptor(log),
			AuthInterceptor(apiToken),
		),
	)

	RegisterProjectionServiceServer(grpcServer, srv)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return grpcServer, healthServer
}

// RunProjection handles the RunProjection RPC
func (s *Server) RunProjection(ctx context.Context, req *dto.SimulationRequest) (*dto.SimulationResponse, error) {
	input, err := req.ToDomain()
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.ProjectionService.RunProjection(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return dto.FromResult(result), nil
}

// ListInstruments handles the ListInstruments RPC
func (s *Server) ListInstruments(ctx context.Context, req *ListInstrumentsRequest) (*ListInstrumentsResponse, error) {
	instruments, err := s.CatalogService.ListInstruments(ctx, req.Query)
	if err != nil {
		return nil, mapError(err)
	}

	return &ListInstrumentsResponse{Instruments: dto.FromInstruments(instruments)}, nil
}

// GetInstrument handles the GetInstrument RPC
func (s *Server) GetInstrument(ctx context.Context, req *GetInstrumentRequest) (*dto.InstrumentDTO, error) {
	if strings.TrimSpace(req.Identifier) == "" {
		return nil, status.Error(codes.InvalidArgument, "identifier is required")
	}

	inst, err := s.CatalogService.GetInstrument(ctx, req.Identifier)
	if err != nil {
		return nil, mapError(err)
	}

	out := dto.FromInstrument(inst)
	return &out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		// Default to Internal error for unknown errors
		return status.Error(codes.Internal, err.Error())
	}
}
