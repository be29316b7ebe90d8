package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type scheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *scheduler) install(t *testing.T) {
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })
	afterFunc = func(d time.Duration, f func()) timer {
		s.mu.Lock()
		defer s.mu.Unlock()
		ft := &fakeTimer{d: d, f: f}
		s.timers = append(s.timers, ft)
		return ft
	}
}

func (s *scheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[len(s.timers)-1]
}

type memHistory struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (h *memHistory) Add(_ context.Context, q string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, q)
	return nil
}

func (h *memHistory) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

func newStore(t *testing.T) *client.MemoryStore {
	t.Helper()
	ctx := context.Background()
	sess := session.New()
	m := client.NewMemoryStore(sess)
	require.NoError(t, m.Register(ctx, "cathy@x.io", "Cathy", "secret1"))
	require.NoError(t, m.Register(ctx, "bob@x.io", "Bob", "secret1"))
	return m
}

func TestEngine_DebounceFiresOnceForLastChange(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)

	var selects atomic.Int32
	var lastQuery atomic.Value
	m := newStore(t)
	m.OnSelect = func(_ context.Context, f models.PostFilter) error {
		selects.Add(1)
		lastQuery.Store(f.Query)
		return nil
	}

	e := NewEngine(m, &memHistory{}, logging.Discard())
	ctx := context.Background()
	for _, q := range []string{"c", "ca", "cat"} {
		e.SetQuery(ctx, q)
	}

	require.Len(t, sched.timers, 3)
	for i, tm := range sched.timers {
		assert.Equal(t, DefaultDebounce, tm.d)
		assert.Equal(t, i < 2, tm.stopped)
	}
	assert.True(t, e.Results().Pending)

	sched.timers[0].f()
	assert.Zero(t, selects.Load())

	sched.last().f()
	assert.Equal(t, int32(1), selects.Load())
	assert.Equal(t, "cat", lastQuery.Load())
	assert.False(t, e.Results().Pending)
}

func TestEngine_EmptyQueryClearsWithoutDispatch(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	m := newStore(t)
	var selects atomic.Int32
	m.OnSelect = func(context.Context, models.PostFilter) error { selects.Add(1); return nil }

	e := NewEngine(m, &memHistory{}, logging.Discard())
	ctx := context.Background()

	e.SetQuery(ctx, "cat")
	pending := sched.last()
	e.SetQuery(ctx, "   ")

	assert.True(t, pending.stopped)
	assert.Len(t, sched.timers, 1)
	rs := e.Results()
	assert.False(t, rs.Pending)
	assert.Empty(t, rs.Posts)

	pending.f()
	assert.Zero(t, selects.Load())

	e.SetQuery(ctx, "dog")
	e.Clear(ctx)
	assert.True(t, sched.last().stopped)
	assert.Empty(t, e.Results().Query)
}

func TestEngine_MatchesContentOrAuthorNewestFirst(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)

	sess := session.New()
	m := client.NewMemoryStore(sess)
	ctx := context.Background()
	post := func(email, name, content string) {
		if err := m.Register(ctx, email, name, "secret1"); err != nil {
			require.ErrorContains(t, err, "already exists")
		}
		tok, err := m.Login(ctx, email, "secret1")
		require.NoError(t, err)
		require.NoError(t, sess.Set(tok))
		_, err = m.Insert(ctx, &models.Post{Content: content})
		require.NoError(t, err)
	}
	post("bob@x.io", "Bob", "my cat sleeps")
	post("bob@x.io", "Bob", "nothing here")
	post("cathy@x.io", "Cathy", "sunny day")
	post("bob@x.io", "Bob", "Another CAT photo")

	hist := &memHistory{}
	e := NewEngine(m, hist, logging.Discard())
	e.SetQuery(ctx, "  Cat ")
	sched.last().f()

	rs := e.Results()
	require.Len(t, rs.Posts, 3)
	assert.Equal(t, "Another CAT photo", rs.Posts[0].Content)
	assert.Equal(t, "sunny day", rs.Posts[1].Content)
	assert.Equal(t, "my cat sleeps", rs.Posts[2].Content)
	assert.Equal(t, []string{"Cat"}, hist.list())
}

func TestEngine_ResultsCappedAt50(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)

	sess := session.New()
	m := client.NewMemoryStore(sess)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, "a@x.io", "A", "secret1"))
	tok, err := m.Login(ctx, "a@x.io", "secret1")
	require.NoError(t, err)
	require.NoError(t, sess.Set(tok))
	for i := 0; i < 60; i++ {
		_, err := m.Insert(ctx, &models.Post{Content: fmt.Sprintf("cat %d", i)})
		require.NoError(t, err)
	}

	var limit atomic.Int32
	m.OnSelect = func(_ context.Context, f models.PostFilter) error { limit.Store(int32(f.Limit)); return nil }

	e := NewEngine(m, nil, logging.Discard())
	e.SetQuery(ctx, "cat")
	sched.last().f()

	assert.Len(t, e.Results().Posts, MaxResults)
	assert.Equal(t, int32(MaxResults), limit.Load())
	assert.Equal(t, "cat 59", e.Results().Posts[0].Content)
}

func TestEngine_FailureYieldsEmptyAndNoHistory(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	m := newStore(t)
	m.OnSelect = func(context.Context, models.PostFilter) error { return errors.New("offline") }

	hist := &memHistory{}
	e := NewEngine(m, hist, logging.Discard())
	e.SetQuery(context.Background(), "cat")
	sched.last().f()

	rs := e.Results()
	assert.True(t, rs.Failed)
	assert.Empty(t, rs.Posts)
	assert.False(t, rs.Pending)
	assert.Empty(t, hist.list())
}

func TestEngine_StaleResultDropped(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	m := newStore(t)

	gate := make(chan struct{})
	entered := make(chan struct{})
	m.OnSelect = func(_ context.Context, f models.PostFilter) error {
		if f.Query == "cat" {
			close(entered)
			<-gate
		}
		return nil
	}

	hist := &memHistory{}
	e := NewEngine(m, hist, logging.Discard())
	ctx := context.Background()

	e.SetQuery(ctx, "cat")
	catDone := make(chan struct{})
	go func() {
		sched.last().f()
		close(catDone)
	}()
	<-entered

	e.SetQuery(ctx, "dog")
	sched.last().f()
	require.Equal(t, "dog", e.Results().Query)

	close(gate)
	<-catDone

	assert.Equal(t, "dog", e.Results().Query)
	assert.Equal(t, []string{"dog"}, hist.list())
}

func TestEngine_RecallGoesThroughDebounce(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	m := newStore(t)
	var selects atomic.Int32
	m.OnSelect = func(context.Context, models.PostFilter) error { selects.Add(1); return nil }

	e := NewEngine(m, &memHistory{}, logging.Discard(), WithDebounce(time.Second))
	e.Recall(context.Background(), "cat")

	assert.Equal(t, "cat", e.Results().Query)
	assert.True(t, e.Results().Pending)
	assert.Equal(t, time.Second, sched.last().d)
	assert.Zero(t, selects.Load())
}

func TestEngine_AwaitWithRealTimer(t *testing.T) {
	m := newStore(t)
	hist := &memHistory{}
	var updates atomic.Int32
	e := NewEngine(m, hist, logging.Discard(),
		WithDebounce(20*time.Millisecond),
		WithRequestTimeout(time.Second),
		WithOnUpdate(func(ResultSet) { updates.Add(1) }),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e.SetQuery(ctx, "anything")
	rs, err := e.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "anything", rs.Query)
	assert.False(t, rs.Pending)
	assert.Equal(t, []string{"anything"}, hist.list())
	assert.Equal(t, int32(2), updates.Load())
}

func TestEngine_AwaitHonoursContext(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	e := NewEngine(newStore(t), nil, logging.Discard())

	e.SetQuery(context.Background(), "cat")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rs, err := e.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, rs.Pending)
}

func TestEngine_CloseCancelsPending(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	m := newStore(t)
	var selects atomic.Int32
	m.OnSelect = func(context.Context, models.PostFilter) error { selects.Add(1); return nil }

	e := NewEngine(m, nil, logging.Discard())
	e.SetQuery(context.Background(), "cat")
	e.Close()

	assert.True(t, sched.last().stopped)
	sched.last().f()
	assert.Zero(t, selects.Load())

	rs, err := e.Await(context.Background())
	require.NoError(t, err)
	assert.False(t, rs.Pending)
}

func TestEngine_HistoryErrorIsSwallowed(t *testing.T) {
	sched := &scheduler{}
	sched.install(t)
	e := NewEngine(newStore(t), &memHistory{err: errors.New("disk full")}, logging.Discard())

	e.SetQuery(context.Background(), "cat")
	sched.last().f()
	assert.False(t, e.Results().Failed)
}
