// Package grpc exposes the content store over gRPC: account RPCs, post
// CRUD and the server-streaming change feed.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/rpc"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	UpdateProfile(ctx context.Context, userID, name string) (string, error)
}

type PostService interface {
	Create(ctx context.Context, identity models.Identity, post *models.Post) (*models.Post, error)
	Update(ctx context.Context, userID, id string, patch models.PostPatch) error
	Delete(ctx context.Context, userID, id string) error
	Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
}

// ChangeHub is the fan-out point for change events.
type ChangeHub interface {
	Subscribe(mask models.EventMask) (<-chan models.ChangeEvent, func())
	Close()
}

type GRPCServer struct {
	rpc.UnimplementedContentServiceServer
	address   string
	users     UserService
	posts     PostService
	hub       ChangeHub
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us UserService, ps PostService, hub ChangeHub, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		posts:     ps,
		hub:       hub,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	rpc.RegisterContentServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done. Open change streams are ended
// before the graceful stop so it does not wait on them.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.hub.Close()
		srv.GracefulStop()
	}()

	return srv.Serve(lis)
}
