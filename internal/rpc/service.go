package rpc

import (
	"context"

	"github.com/dmitrijs2005/framez/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "framez.content.ContentService"

const (
	RegisterMethod      = "/" + ServiceName + "/Register"
	LoginMethod         = "/" + ServiceName + "/Login"
	PingMethod          = "/" + ServiceName + "/Ping"
	UpdateProfileMethod = "/" + ServiceName + "/UpdateProfile"
	InsertPostMethod    = "/" + ServiceName + "/InsertPost"
	UpdatePostMethod    = "/" + ServiceName + "/UpdatePost"
	DeletePostMethod    = "/" + ServiceName + "/DeletePost"
	SelectPostsMethod   = "/" + ServiceName + "/SelectPosts"
	SubscribeMethod     = "/" + ServiceName + "/Subscribe"
)

// PublicMethods do not require an access token.
var PublicMethods = map[string]struct{}{
	RegisterMethod: {},
	LoginMethod:    {},
	PingMethod:     {},
}

// ChangeStream is the server side of the Subscribe stream.
type ChangeStream = grpc.ServerStreamingServer[models.ChangeEvent]

// ContentServiceServer is implemented by the Framez server.
type ContentServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error)
	InsertPost(context.Context, *InsertPostRequest) (*InsertPostResponse, error)
	UpdatePost(context.Context, *UpdatePostRequest) (*UpdatePostResponse, error)
	DeletePost(context.Context, *DeletePostRequest) (*DeletePostResponse, error)
	SelectPosts(context.Context, *SelectPostsRequest) (*SelectPostsResponse, error)
	Subscribe(*SubscribeRequest, ChangeStream) error
}

// UnimplementedContentServiceServer can be embedded to get forward
// compatible implementations.
type UnimplementedContentServiceServer struct{}

func (UnimplementedContentServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedContentServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedContentServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedContentServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedContentServiceServer) InsertPost(context.Context, *InsertPostRequest) (*InsertPostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InsertPost not implemented")
}
func (UnimplementedContentServiceServer) UpdatePost(context.Context, *UpdatePostRequest) (*UpdatePostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdatePost not implemented")
}
func (UnimplementedContentServiceServer) DeletePost(context.Context, *DeletePostRequest) (*DeletePostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeletePost not implemented")
}
func (UnimplementedContentServiceServer) SelectPosts(context.Context, *SelectPostsRequest) (*SelectPostsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectPosts not implemented")
}
func (UnimplementedContentServiceServer) Subscribe(*SubscribeRequest, ChangeStream) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

func RegisterContentServiceServer(s grpc.ServiceRegistrar, srv ContentServiceServer) {
	s.RegisterService(&ContentServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(ContentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ContentServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ContentServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ContentServiceServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, models.ChangeEvent]{ServerStream: stream})
}

var ContentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(RegisterMethod, ContentServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, ContentServiceServer.Login)},
		{MethodName: "Ping", Handler: unaryHandler(PingMethod, ContentServiceServer.Ping)},
		{MethodName: "UpdateProfile", Handler: unaryHandler(UpdateProfileMethod, ContentServiceServer.UpdateProfile)},
		{MethodName: "InsertPost", Handler: unaryHandler(InsertPostMethod, ContentServiceServer.InsertPost)},
		{MethodName: "UpdatePost", Handler: unaryHandler(UpdatePostMethod, ContentServiceServer.UpdatePost)},
		{MethodName: "DeletePost", Handler: unaryHandler(DeletePostMethod, ContentServiceServer.DeletePost)},
		{MethodName: "SelectPosts", Handler: unaryHandler(SelectPostsMethod, ContentServiceServer.SelectPosts)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "framez/content.json",
}
