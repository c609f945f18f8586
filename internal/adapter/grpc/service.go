package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "wealthflow.projection.v1.ProjectionService"

const (
	methodRunProjection   = "/" + ServiceName + "/RunProjection"
	methodListInstruments = "/" + ServiceName + "/ListInstruments"
	methodGetInstrument   = "/" + ServiceName + "/GetInstrument"
)

// ListInstrumentsRequest filters the catalog by a case-insensitive substring
type ListInstrumentsRequest struct {
	Query string `json:"query"`
}

// ListInstrumentsResponse holds the matching catalog entries
type ListInstrumentsResponse struct {
	Instruments []dto.InstrumentDTO `json:"instruments"`
}

// GetInstrumentRequest looks up one catalog entry
type GetInstrumentRequest struct {
	Identifier string `json:"identifier"`
}

// ProjectionServiceServer is the server API for the projection service
type ProjectionServiceServer interface {
	RunProjection(context.Context, *dto.SimulationRequest) (*dto.SimulationResponse, error)
	ListInstruments(context.Context, *ListInstrumentsRequest) (*ListInstrumentsResponse, error)
	GetInstrument(context.Context, *GetInstrumentRequest) (*dto.InstrumentDTO, error)
}

// RegisterProjectionServiceServer registers srv on the gRPC server
func RegisterProjectionServiceServer(s grpc.ServiceRegistrar, srv ProjectionServiceServer) {
	s.RegisterService(&projectionServiceDesc, srv)
}

var projectionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProjectionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunProjection", Handler: runProjectionHandler},
		{MethodName: "ListInstruments", Handler: listInstrumentsHandler},
		{MethodName: "GetInstrument", Handler: getInstrumentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wealthflow/projection/v1/projection.json",
}

func runProjectionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(dto.SimulationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProjectionServiceServer).RunProjection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRunProjection}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProjectionServiceServer).RunProjection(ctx, req.(*dto.SimulationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listInstrumentsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListInstrumentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProjectionServiceServer).ListInstruments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListInstruments}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProjectionServiceServer).ListInstruments(ctx, req.(*ListInstrumentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getInstrumentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetInstrumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProjectionServiceServer).GetInstrument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetInstrument}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProjectionServiceServer).GetInstrument(ctx, req.(*GetInstrumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ProjectionServiceClient calls the projection service over a json content-subtype
type ProjectionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProjectionServiceClient wraps a client connection
func NewProjectionServiceClient(cc grpc.ClientConnInterface) *ProjectionServiceClient {
	return &ProjectionServiceClient{cc: cc}
}

// RunProjection runs one projection
func (c *ProjectionServiceClient) RunProjection(ctx context.Context, in *dto.SimulationRequest, opts ...grpc.CallOption) (*dto.SimulationResponse, error) {
	out := new(dto.SimulationResponse)
	if err := c.cc.Invoke(ctx, methodRunProjection, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListInstruments lists the catalog
func (c *ProjectionServiceClient) ListInstruments(ctx context.Context, in *ListInstrumentsRequest, opts ...grpc.CallOption) (*ListInstrumentsResponse, error) {
	out := new(ListInstrumentsResponse)
	if err := c.cc.Invoke(ctx, methodListInstruments, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetInstrument fetches one catalog entry
func (c *ProjectionServiceClient) GetInstrument(ctx context.Context, in *GetInstrumentRequest, opts ...grpc.CallOption) (*dto.InstrumentDTO, error) {
	out := new(dto.InstrumentDTO)
	if err := c.cc.Invoke(ctx, methodGetInstrument, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
