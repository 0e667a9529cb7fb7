package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "lockdown.v1.LockdownService"

// Requests and responses are google.protobuf.Struct values, so the service needs no
// generated stubs and any protobuf client can call it.
type LockdownServiceServer interface {
	GetStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	TransitionPhase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Rollover(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ReportFailure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ResolveFailure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListActiveFailures(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CanServe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(LockdownServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var LockdownServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LockdownServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodHandler("GetStatus", LockdownServiceServer.GetStatus),
		methodHandler("TransitionPhase", LockdownServiceServer.TransitionPhase),
		methodHandler("Rollover", LockdownServiceServer.Rollover),
		methodHandler("ReportFailure", LockdownServiceServer.ReportFailure),
		methodHandler("ResolveFailure", LockdownServiceServer.ResolveFailure),
		methodHandler("ListActiveFailures", LockdownServiceServer.ListActiveFailures),
		methodHandler("CanServe", LockdownServiceServer.CanServe),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lockdown/v1/lockdown.proto",
}

func RegisterLockdownServiceServer(s grpc.ServiceRegistrar, srv LockdownServiceServer) {
	s.RegisterService(&LockdownServiceDesc, srv)
}

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func methodHandler(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LockdownServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LockdownServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
