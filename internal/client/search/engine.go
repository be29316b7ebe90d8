// Package search runs debounced post searches and records successful
// queries in the recent-search history.
package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	MaxResults      = 50
)

type timer interface {
	Stop() bool
}

var afterFunc = func(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

type Recorder interface {
	Add(ctx context.Context, query string) error
}

// ResultSet is the outcome for Query. Pending is true while the debounce
// timer or the dispatch for Query is outstanding.
type ResultSet struct {
	Query   string
	Posts   []*models.Post
	Pending bool
	Failed  bool
}

type Option func(*Engine)

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithOnUpdate registers fn to be called whenever the result set changes.
// fn runs under the engine lock and must not call back into the Engine.
func WithOnUpdate(fn func(ResultSet)) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

type Engine struct {
	store    client.ContentStore
	history  Recorder
	logger   logging.Logger
	debounce time.Duration
	timeout  time.Duration
	onUpdate func(ResultSet)

	mu        sync.Mutex
	seq       uint64
	timer     timer
	settled   chan struct{}
	isSettled bool

	results atomic.Pointer[ResultSet]
}

func NewEngine(store client.ContentStore, history Recorder, l logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		history:  history,
		logger:   l.With("module", "search"),
		debounce: DefaultDebounce,
		settled:  make(chan struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	e.settle()
	e.results.Store(&ResultSet{})
	return e
}

func (e *Engine) Results() ResultSet {
	return *e.results.Load()
}

// settle wakes Await callers. Callers hold e.mu.
func (e *Engine) settle() {
	if !e.isSettled {
		close(e.settled)
		e.isSettled = true
	}
}

func (e *Engine) unsettle() {
	e.settle()
	e.settled = make(chan struct{})
	e.isSettled = false
}

// SetQuery replaces the query. Any pending dispatch is cancelled and
// results of in-flight ones are dropped. An empty query clears the results
// at once; otherwise a dispatch runs after the debounce delay.
func (e *Engine) SetQuery(ctx context.Context, query string) {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.unsettle()

	q := strings.TrimSpace(query)
	rs := &ResultSet{Query: query}
	if q == "" {
		e.settle()
	} else {
		rs.Pending = true
		e.timer = afterFunc(e.debounce, func() { e.dispatch(ctx, seq, query, q) })
	}
	e.results.Store(rs)
	e.publish(*rs)
	e.mu.Unlock()
}

// Recall re-issues a recent search. It goes through the debounce like
// typed input.
func (e *Engine) Recall(ctx context.Context, entry string) {
	e.SetQuery(ctx, entry)
}

func (e *Engine) Clear(ctx context.Context) {
	e.SetQuery(ctx, "")
}

func (e *Engine) dispatch(ctx context.Context, seq uint64, raw, q string) {
	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	posts, err := e.store.Select(ctx, models.PostFilter{Query: q, Limit: MaxResults, Order: models.NewestFirst})

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		e.logger.Debug(ctx, "stale search result dropped", "query", q)
		return
	}
	rs := &ResultSet{Query: raw, Posts: posts}
	if err != nil {
		rs.Posts = nil
		rs.Failed = true
	}
	e.results.Store(rs)
	e.publish(*rs)
	e.mu.Unlock()

	if err != nil {
		e.logger.Error(ctx, "search failed", "query", q, "error", err)
	} else if e.history != nil {
		if err := e.history.Add(ctx, q); err != nil {
			e.logger.Error(ctx, "failed to save recent search", "error", err)
		}
	}

	e.mu.Lock()
	if seq == e.seq {
		e.settle()
	}
	e.mu.Unlock()
}

// Await blocks until the current query has results or ctx ends.
func (e *Engine) Await(ctx context.Context) (ResultSet, error) {
	for {
		e.mu.Lock()
		ch := e.settled
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return e.Results(), ctx.Err()
		}

		if rs := e.Results(); !rs.Pending {
			return rs, nil
		}
	}
}

// Close cancels a pending dispatch and drops in-flight results.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if rs := e.results.Load(); rs.Pending {
		e.results.Store(&ResultSet{Query: rs.Query})
	}
	e.settle()
}

func (e *Engine) publish(rs ResultSet) {
	if e.onUpdate != nil {
		e.onUpdate(rs)
	}
}
