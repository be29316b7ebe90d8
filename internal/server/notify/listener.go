package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the PostgreSQL NOTIFY channel fed by the posts trigger.
const Channel = "posts_changes"

type notificationSource interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// connectListener opens a dedicated connection and issues LISTEN on it.
var connectListener = func(ctx context.Context, dsn string) (notificationSource, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}

// Listener turns NOTIFY payloads into hub events.
type Listener struct {
	dsn        string
	hub        *Hub
	logger     logging.Logger
	retryDelay time.Duration
}

func NewListener(dsn string, hub *Hub, l logging.Logger) *Listener {
	return &Listener{
		dsn:        dsn,
		hub:        hub,
		logger:     l.With("module", "notify"),
		retryDelay: 2 * time.Second,
	}
}

// Run listens until ctx is done, reconnecting after connection errors.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Error(ctx, "listener stopped, reconnecting", "error", err, "delay", l.retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	src, err := connectListener(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = src.Close(context.Background()) }()

	l.logger.Info(ctx, "listening for changes", "channel", Channel)

	for {
		n, err := src.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := parsePayload(n.Payload)
		if err != nil {
			l.logger.Warn(ctx, "bad notification payload", "payload", n.Payload, "error", err)
			continue
		}
		if dropped := l.hub.Publish(ev); dropped > 0 {
			l.logger.Debug(ctx, "slow subscribers skipped event", "dropped", dropped)
		}
	}
}

type payload struct {
	Type models.ChangeType `json:"type"`
	ID   string            `json:"id"`
}

func parsePayload(s string) (models.ChangeEvent, error) {
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return models.ChangeEvent{}, err
	}
	switch p.Type {
	case models.ChangeCreate, models.ChangeUpdate, models.ChangeDelete:
	default:
		return models.ChangeEvent{}, fmt.Errorf("unknown change type %q", p.Type)
	}
	return models.ChangeEvent{Collection: common.PostsCollection, Type: p.Type, ID: p.ID}, nil
}
