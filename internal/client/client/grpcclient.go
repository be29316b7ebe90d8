package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const subscriptionBuffer = 16

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.ContentServiceClient
	session     *session.Session
}

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.session.Token()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.session.Token()), desc, cc, method, opts...)
}

// NewGRPCClient dials endpointURL lazily; the first call opens the
// connection.
func NewGRPCClient(endpointURL string, sess *session.Session) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, session: sess}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewContentServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, email, name, password string) error {
	_, err := s.client.Register(ctx, &rpc.RegisterRequest{Email: email, Name: name, Password: password})
	return s.mapError(err)
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.AccessToken, nil
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, name string) (string, error) {
	resp, err := s.client.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Name: name})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.AccessToken, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: %w: ping status %q", common.ErrStore, common.ErrUnavailable, resp.Status)
	}
	return nil
}

func (s *GRPCClient) Insert(ctx context.Context, post *models.Post) (string, error) {
	resp, err := s.client.InsertPost(ctx, &rpc.InsertPostRequest{Post: *post})
	if err != nil {
		return "", s.mapError(err)
	}
	post.ID = resp.ID
	post.CreatedAt = resp.CreatedAt
	return resp.ID, nil
}

func (s *GRPCClient) Update(ctx context.Context, id string, patch models.PostPatch) error {
	_, err := s.client.UpdatePost(ctx, &rpc.UpdatePostRequest{ID: id, Patch: patch})
	return s.mapError(err)
}

func (s *GRPCClient) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeletePost(ctx, &rpc.DeletePostRequest{ID: id})
	return s.mapError(err)
}

func (s *GRPCClient) Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	resp, err := s.client.SelectPosts(ctx, &rpc.SelectPostsRequest{Filter: filter})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Posts, nil
}

// Subscribe opens the server change stream. The stream lives until Close
// or until ctx is cancelled.
func (s *GRPCClient) Subscribe(ctx context.Context, collection string, mask models.EventMask) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := s.client.Subscribe(ctx, &rpc.SubscribeRequest{Collection: collection, Mask: mask})
	if err != nil {
		cancel()
		return nil, s.mapError(err)
	}

	sub := &streamSubscription{
		events: make(chan models.ChangeEvent, subscriptionBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(ctx, stream)
	return sub, nil
}

type streamSubscription struct {
	events chan models.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *streamSubscription) run(ctx context.Context, stream grpc.ServerStreamingClient[models.ChangeEvent]) {
	defer close(s.done)
	defer close(s.events)

	for {
		ev, err := stream.Recv()
		if err != nil {
			return
		}
		select {
		case s.events <- *ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *streamSubscription) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *streamSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		for range s.events {
		}
	})
	return nil
}

// mapError converts a gRPC status into the common error taxonomy. Every
// remote failure except the ownership and authentication ones is also an
// ErrStore.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrStore, err)
	}
	switch st.Code() {
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrAuthorization, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w: %s", common.ErrStore, common.ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %w: %s", common.ErrStore, common.ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w: %s", common.ErrStore, common.ErrInvalidContent, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %w: %s", common.ErrStore, common.ErrAlreadyExists, st.Message())
	default:
		return fmt.Errorf("%w: %w", common.ErrStore, err)
	}
}
