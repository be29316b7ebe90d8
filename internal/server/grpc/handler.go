package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrAuthorization):
		return status.Error(codes.PermissionDenied, "not the owner")
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrInvalidContent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// logUnexpected logs failures that are not caused by the caller's input.
func (s *GRPCServer) logUnexpected(ctx context.Context, msg string, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrAuthorization),
		errors.Is(err, common.ErrInvalidContent):
		return
	}
	s.logger.Error(ctx, msg, "error", err)
}

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	u, err := s.users.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidContent) && !errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Error(ctx, "registration failed", "error", err)
		}
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return &rpc.RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	token, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.UpdateProfileResponse, error) {
	id, _ := identityFromContext(ctx)
	token, err := s.users.UpdateProfile(ctx, id.UserID, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.UpdateProfileResponse{AccessToken: token}, nil
}

func (s *GRPCServer) InsertPost(ctx context.Context, req *rpc.InsertPostRequest) (*rpc.InsertPostResponse, error) {
	id, _ := identityFromContext(ctx)
	post := req.Post
	p, err := s.posts.Create(ctx, id, &post)
	if err != nil {
		s.logUnexpected(ctx, "insert failed", err)
		return nil, toStatus(err)
	}
	return &rpc.InsertPostResponse{ID: p.ID, CreatedAt: p.CreatedAt}, nil
}

func (s *GRPCServer) UpdatePost(ctx context.Context, req *rpc.UpdatePostRequest) (*rpc.UpdatePostResponse, error) {
	id, _ := identityFromContext(ctx)
	if err := s.posts.Update(ctx, id.UserID, req.ID, req.Patch); err != nil {
		s.logUnexpected(ctx, "update failed", err)
		return nil, toStatus(err)
	}
	return &rpc.UpdatePostResponse{}, nil
}

func (s *GRPCServer) DeletePost(ctx context.Context, req *rpc.DeletePostRequest) (*rpc.DeletePostResponse, error) {
	id, _ := identityFromContext(ctx)
	if err := s.posts.Delete(ctx, id.UserID, req.ID); err != nil {
		s.logUnexpected(ctx, "delete failed", err)
		return nil, toStatus(err)
	}
	return &rpc.DeletePostResponse{}, nil
}

func (s *GRPCServer) SelectPosts(ctx context.Context, req *rpc.SelectPostsRequest) (*rpc.SelectPostsResponse, error) {
	posts, err := s.posts.Select(ctx, req.Filter)
	if err != nil {
		s.logger.Error(ctx, "select failed", "error", err)
		return nil, toStatus(err)
	}
	return &rpc.SelectPostsResponse{Posts: posts}, nil
}

// Subscribe streams change events until the client goes away or the
// server shuts down. An empty mask means every change type.
func (s *GRPCServer) Subscribe(req *rpc.SubscribeRequest, stream rpc.ChangeStream) error {
	if req.Collection != common.PostsCollection {
		return status.Errorf(codes.InvalidArgument, "unknown collection %q", req.Collection)
	}
	mask := req.Mask
	if mask == 0 {
		mask = models.MaskAll
	}

	ctx := stream.Context()
	events, cancel := s.hub.Subscribe(mask)
	defer cancel()

	s.logger.Debug(ctx, "subscriber attached", "collection", req.Collection)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "server shutting down")
			}
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}
