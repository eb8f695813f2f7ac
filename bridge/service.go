// Package bridge exposes the actor script API over gRPC. Requests and
// replies are structpb.Struct messages, so no generated stubs are needed:
//
//	request  {"native": "SetActorPos", "args": [65537, [1, 2, 3]]}
//	reply    {"result": true}
package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"actornet/internal/loop"
	"actornet/internal/pool"
	"actornet/pcall"
)

const (
	ServiceName    = "actornet.bridge.v1.Natives"
	CallMethod     = "/" + ServiceName + "/Call"
	ListMethod     = "/" + ServiceName + "/List"
	defaultTimeout = 5 * time.Second
)

type NativesServer interface {
	Call(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NativesServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NativesServer).Call(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NativesServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NativesServer).List(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NativesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
		{MethodName: "List", Handler: listHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "actornet/bridge/v1/natives.proto",
}

func RegisterNativesServer(s grpc.ServiceRegistrar, srv NativesServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server runs every native on the tick goroutine.
type Server struct {
	registry *Registry
	loop     *loop.Loop
	log      *logrus.Entry
	timeout  time.Duration
}

func NewServer(registry *Registry, l *loop.Loop, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{registry: registry, loop: l, log: log.WithField("component", "bridge"), timeout: defaultTimeout}
}

func (s *Server) Call(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := req.GetFields()["native"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "native name required")
	}
	if !s.registry.Has(name) {
		return nil, status.Errorf(codes.NotFound, "unknown native %s", name)
	}
	args := req.GetFields()["args"].GetListValue().GetValues()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var result *structpb.Value
	err := s.loop.Call(ctx, func() error {
		var err error
		result, err = s.registry.Call(name, args)
		return err
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"result": result}}, nil
}

// List returns the sorted native names.
func (s *Server) List(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	names := s.registry.Names()
	items := make([]*structpb.Value, len(names))
	for i, n := range names {
		items[i] = structpb.NewStringValue(n)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"natives": structpb.NewListValue(&structpb.ListValue{Values: items}),
	}}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrUnknownNative):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrBadArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, pool.ErrFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, pcall.ErrPanic):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, loop.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

// LoggingInterceptor logs every bridge call with its outcome.
func LoggingInterceptor(log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := logrus.Fields{"method": info.FullMethod, "took": time.Since(start)}
		if s, ok := req.(*structpb.Struct); ok {
			if n := s.GetFields()["native"].GetStringValue(); n != "" {
				fields["native"] = n
			}
		}
		if err != nil {
			log.WithFields(fields).WithField("code", status.Code(err)).Warn("[Bridge/Call] failed")
		} else {
			log.WithFields(fields).Debug("[Bridge/Call] ok")
		}
		return resp, err
	}
}
