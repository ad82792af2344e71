package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
)

// ExtractionServiceName is the fully qualified gRPC service name.
const ExtractionServiceName = "contracts.v1.Extraction"

const (
	processDocumentMethod = "/" + ExtractionServiceName + "/ProcessDocument"
	submitEventMethod     = "/" + ExtractionServiceName + "/SubmitEvent"
)

// ExtractionServer is the gRPC contract. Messages are protobuf well-known
// types: the record travels as a Struct.
type ExtractionServer interface {
	ProcessDocument(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SubmitEvent(context.Context, *structpb.Struct) (*wrapperspb.Int32Value, error)
}

// ExtractionServiceDesc registers ExtractionServer with a grpc.Server.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessDocument", Handler: processDocumentHandler},
		{MethodName: "SubmitEvent", Handler: submitEventHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contracts/v1/extraction.proto",
}

func processDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).ProcessDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: processDocumentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).ProcessDocument(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func submitEventHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).SubmitEvent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitEventMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).SubmitEvent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionClient calls the service over an existing connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) ProcessDocument(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, processDocumentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) SubmitEvent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.cc.Invoke(ctx, submitEventMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCService adapts ExtractionService to ExtractionServer.
type GRPCService struct {
	svc    *ExtractionService
	logger *slog.Logger
}

func NewGRPCService(svc *ExtractionService, logger *slog.Logger) *GRPCService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCService{svc: svc, logger: logger}
}

func (s *GRPCService) ProcessDocument(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	record, err := s.svc.ProcessDocument(ctx, req.GetValue())
	if err != nil {
		s.logger.Error("grpc.process_document.failed", "key", req.GetValue(), "err", err)
		return nil, grpcError(err)
	}
	b, err := json.Marshal(record)
	if err != nil {
		return nil, common.InternalErrorf("encode record: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("decode record: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("convert record: %v", err)
	}
	return out, nil
}

func (s *GRPCService) SubmitEvent(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int32Value, error) {
	b, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, common.InvalidArgumentErrorf("encode event: %v", err)
	}
	ev, err := events.Parse(b)
	if err != nil {
		return nil, grpcError(err)
	}
	n, err := s.svc.SubmitEvent(ctx, ev)
	if err != nil {
		s.logger.Error("grpc.submit_event.failed", "queued", n, "err", err)
		return nil, grpcError(err)
	}
	return wrapperspb.Int32(int32(n)), nil
}

func grpcError(err error) error {
	if errors.Is(err, async.ErrQueueClosed) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return common.ToStatus(err)
}

// NewGRPCServer builds a server with the extraction and health services
// registered.
func NewGRPCServer(svc *ExtractionService, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	s.RegisterService(&ExtractionServiceDesc, NewGRPCService(svc, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ExtractionServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, healthServer
}
