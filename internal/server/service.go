// gRPC service description and client for the edit store
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "editstore.v1.EditService"

// EditServiceServer is the server API. Requests are google.protobuf.Struct
// documents; see the request types in server.go for their fields.
type EditServiceServer interface {
	Initialize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveFieldUpdate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetFieldState(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Discard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reinstate(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DismissNotification(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RemoveFieldUpdate(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetFieldUpdates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompilePatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(EditServiceServer, context.Context, *structpb.Struct) (proto.Message, error)

func method(name string, c call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(EditServiceServer)
			if interceptor == nil {
				return c(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return c(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes EditService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EditServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Initialize", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Initialize(ctx, in)
		}),
		method("SaveFieldUpdate", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.SaveFieldUpdate(ctx, in)
		}),
		method("SetFieldState", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.SetFieldState(ctx, in)
		}),
		method("Discard", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Discard(ctx, in)
		}),
		method("Reinstate", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Reinstate(ctx, in)
		}),
		method("DismissNotification", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.DismissNotification(ctx, in)
		}),
		method("RemoveFieldUpdate", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.RemoveFieldUpdate(ctx, in)
		}),
		method("GetFieldUpdates", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.GetFieldUpdates(ctx, in)
		}),
		method("CompilePatch", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.CompilePatch(ctx, in)
		}),
		method("Status", func(s EditServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Status(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "editstore/v1/edit_service",
}

// RegisterEditServiceServer registers srv on s
func RegisterEditServiceServer(s grpc.ServiceRegistrar, srv EditServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls EditService over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, name string, in *structpb.Struct, out proto.Message, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...)
}

func (c *Client) structCall(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) emptyCall(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.invoke(ctx, name, in, new(emptypb.Empty), opts...)
}

func (c *Client) Initialize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "Initialize", in, opts...)
}

func (c *Client) SaveFieldUpdate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "SaveFieldUpdate", in, opts...)
}

func (c *Client) SetFieldState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.emptyCall(ctx, "SetFieldState", in, opts...)
}

func (c *Client) Discard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "Discard", in, opts...)
}

func (c *Client) Reinstate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.emptyCall(ctx, "Reinstate", in, opts...)
}

func (c *Client) DismissNotification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.emptyCall(ctx, "DismissNotification", in, opts...)
}

func (c *Client) RemoveFieldUpdate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.emptyCall(ctx, "RemoveFieldUpdate", in, opts...)
}

func (c *Client) GetFieldUpdates(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "GetFieldUpdates", in, opts...)
}

func (c *Client) CompilePatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "CompilePatch", in, opts...)
}

func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.structCall(ctx, "Status", &structpb.Struct{}, opts...)
}
