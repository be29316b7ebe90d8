// Package feed keeps a local snapshot of the posts collection in step
// with the remote store.
package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
)

// RetryMessage is shown when a fetch fails.
const RetryMessage = "Failed to load posts. Pull down to retry."

// DefaultResubscribeDelay is the pause between attempts to reopen the
// change stream.
const DefaultResubscribeDelay = 5 * time.Second

type State int

const (
	Idle State = iota
	Loading
	Refreshing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Refreshing:
		return "refreshing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the feed. Posts is shared between
// snapshots and must not be modified.
type Snapshot struct {
	State     State
	Posts     []*models.Post
	Err       string
	FetchedAt time.Time
}

// Busy reports whether a fetch is running.
func (s Snapshot) Busy() bool {
	return s.State == Loading || s.State == Refreshing
}

type Option func(*Synchronizer)

// WithOnUpdate registers fn to be called after every snapshot change.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(s *Synchronizer) { s.onUpdate = fn }
}

// WithResubscribeDelay sets the pause before reopening a change stream the
// store has ended.
func WithResubscribeDelay(d time.Duration) Option {
	return func(s *Synchronizer) { s.resubscribeDelay = d }
}

// WithRequestTimeout bounds each fetch.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.timeout = d }
}

type Synchronizer struct {
	store    client.ContentStore
	logger   logging.Logger
	onUpdate func(Snapshot)
	timeout  time.Duration
	now      func() time.Time

	resubscribeDelay time.Duration

	snap     atomic.Pointer[Snapshot]
	inFlight atomic.Bool
	pending  atomic.Bool
	closed   atomic.Bool

	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
	sub       client.Subscription
	wg        sync.WaitGroup
	done      chan struct{}
}

func NewSynchronizer(store client.ContentStore, l logging.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:  store,
		logger: l.With("module", "feed"),
		now:    time.Now,
		done:   make(chan struct{}),

		resubscribeDelay: DefaultResubscribeDelay,
	}
	for _, o := range opts {
		o(s)
	}
	s.snap.Store(&Snapshot{State: Idle})
	return s
}

// Snapshot returns the current feed view.
func (s *Synchronizer) Snapshot() Snapshot {
	return *s.snap.Load()
}

// Start subscribes to post changes and performs the first fetch. Later
// calls do nothing. The subscription is reopened whenever the store ends
// it, until Close.
func (s *Synchronizer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		if s.closed.Load() {
			return
		}

		sub, err := s.store.Subscribe(ctx, common.PostsCollection, models.MaskAll)
		if err != nil {
			s.logger.Error(ctx, "subscribe failed, will retry", "error", err)
			sub = nil
		}
		if !s.adopt(sub) {
			return
		}

		s.wg.Add(1)
		go s.listen(ctx, sub)

		s.Refresh(ctx)
	})
}

// adopt records sub as the live subscription. It reports false, closing
// sub, once the synchronizer is closed.
func (s *Synchronizer) adopt(sub client.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		if sub != nil {
			_ = sub.Close()
		}
		return false
	}
	s.sub = sub
	return true
}

func (s *Synchronizer) listen(ctx context.Context, sub client.Subscription) {
	defer s.wg.Done()

	for {
		if sub != nil {
			s.consume(ctx, sub)
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			s.logger.Warn(ctx, "change stream ended, resubscribing")
		}

		var ok bool
		if sub, ok = s.resubscribe(ctx); !ok {
			return
		}
		// events sent while the stream was down are lost
		s.Refresh(ctx)
	}
}

// consume refreshes on incoming events until the stream ends.
func (s *Synchronizer) consume(ctx context.Context, sub client.Subscription) {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || s.closed.Load() {
				return
			}
			s.logger.Debug(ctx, "change received", "type", ev.Type, "id", ev.ID)
			if !drain(events) {
				return
			}
			s.Refresh(ctx)
		}
	}
}

// resubscribe retries Subscribe after resubscribeDelay until it succeeds.
// It reports false when ctx ends or the synchronizer is closed.
func (s *Synchronizer) resubscribe(ctx context.Context) (client.Subscription, bool) {
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-s.done:
			return nil, false
		case <-time.After(s.resubscribeDelay):
		}

		sub, err := s.store.Subscribe(ctx, common.PostsCollection, models.MaskAll)
		if err != nil {
			s.logger.Error(ctx, "resubscribe failed", "error", err)
			continue
		}
		if !s.adopt(sub) {
			return nil, false
		}
		s.logger.Info(ctx, "change stream reopened")
		return sub, true
	}
}

// drain discards queued events; one fetch covers all of them. It reports
// false once the channel is closed.
func drain(events <-chan models.ChangeEvent) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Refresh fetches the whole feed. A call made while a fetch is running
// marks the feed dirty and returns; the running caller then fetches once
// more.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.pending.Store(true)
	for s.pending.Load() && s.inFlight.CompareAndSwap(false, true) {
		for s.pending.Swap(false) {
			s.fetch(ctx)
		}
		s.inFlight.Store(false)
	}
}

func (s *Synchronizer) fetch(ctx context.Context) {
	prev := s.snap.Load()

	next := Refreshing
	if prev.State == Idle || prev.State == Loading {
		next = Loading
	}
	s.publish(&Snapshot{State: next, Posts: prev.Posts, Err: prev.Err, FetchedAt: prev.FetchedAt})

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	posts, err := s.store.Select(ctx, models.PostFilter{Order: models.NewestFirst})
	if err != nil {
		s.logger.Error(ctx, "feed fetch failed", "error", err)
		s.publish(&Snapshot{State: Failed, Posts: prev.Posts, Err: RetryMessage, FetchedAt: prev.FetchedAt})
		return
	}

	s.logger.Debug(ctx, "feed refreshed", "posts", len(posts))
	s.publish(&Snapshot{State: Ready, Posts: posts, FetchedAt: s.now()})
}

func (s *Synchronizer) publish(snap *Snapshot) {
	s.snap.Store(snap)
	if s.onUpdate != nil && !s.closed.Load() {
		s.onUpdate(*snap)
	}
}

// Close ends the change subscription exactly once and waits for the
// listener to exit.
func (s *Synchronizer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.done)
		sub := s.sub
		s.mu.Unlock()

		if sub != nil {
			err = sub.Close()
		}
		s.wg.Wait()
	})
	return err
}
