package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "prp.v1.SessionService"

// SessionServiceServer is the server API for prp.v1.SessionService. Every
// request and response is a google.protobuf.Struct.
type SessionServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSubject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateField(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Propagate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearNotFound(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structHandler func(SessionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, h structHandler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return h(srv.(SessionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return h(srv.(SessionServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSession", SessionServiceServer.CreateSession),
		unary("GetSession", SessionServiceServer.GetSession),
		unary("DeleteSession", SessionServiceServer.DeleteSession),
		unary("SetSubject", SessionServiceServer.SetSubject),
		unary("AddRecord", SessionServiceServer.AddRecord),
		unary("IngestFile", SessionServiceServer.IngestFile),
		unary("RemoveRecord", SessionServiceServer.RemoveRecord),
		unary("SetActive", SessionServiceServer.SetActive),
		unary("UpdateField", SessionServiceServer.UpdateField),
		unary("Propagate", SessionServiceServer.Propagate),
		unary("ClearNotFound", SessionServiceServer.ClearNotFound),
		unary("Extract", SessionServiceServer.Extract),
		unary("Refine", SessionServiceServer.Refine),
		unary("ExportRecord", SessionServiceServer.ExportRecord),
		unary("ExportAll", SessionServiceServer.ExportAll),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "prp/v1/session.proto",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

// Client calls prp.v1.SessionService methods by name.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req converted to a Struct.
func (c *Client) Call(ctx context.Context, method string, req map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
