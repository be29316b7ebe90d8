package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/client/config"
	"github.com/dmitrijs2005/framez/internal/client/feed"
	"github.com/dmitrijs2005/framez/internal/client/media"
	"github.com/dmitrijs2005/framez/internal/client/objectstore"
	"github.com/dmitrijs2005/framez/internal/client/posts"
	"github.com/dmitrijs2005/framez/internal/client/recent"
	"github.com/dmitrijs2005/framez/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/framez/internal/client/search"
	"github.com/dmitrijs2005/framez/internal/client/services"
	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/client/settings"
	"github.com/dmitrijs2005/framez/internal/filex"
	"github.com/dmitrijs2005/framez/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
	session  *session.Session
	backend  client.Backend
	objects  objectstore.Store
	history  *recent.History
	settings *settings.Service
	posts    *posts.Service
	search   *search.Engine

	authService services.AuthService

	mu   sync.Mutex
	mode Mode
	feed *feed.Synchronizer
}

// NewApp opens the local database and connects the configured backend.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewText(os.Stderr, c.LogLevel)

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	sess := session.New()
	backend, objects, err := newBackend(ctx, c, sess)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return newApp(c, logger, db, sess, backend, objects, os.Stdin, os.Stdout), nil
}

func newBackend(ctx context.Context, c *config.Config, sess *session.Session) (client.Backend, objectstore.Store, error) {
	switch c.Backend {
	case config.BackendMemory:
		return client.NewMemoryStore(sess), objectstore.NewMemoryStore(c.S3PublicBaseURL, c.S3Bucket), nil
	case config.BackendRemote:
		apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, sess)
		if err != nil {
			return nil, nil, err
		}
		objects, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			BaseEndpoint:  c.S3BaseEndpoint,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			PublicBaseURL: c.S3PublicBaseURL,
		})
		if err != nil {
			_ = apiClient.Close()
			return nil, nil, err
		}
		return apiClient, objects, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, sess *session.Session,
	backend client.Backend, objects objectstore.Store, in io.Reader, out io.Writer) *App {

	repo := metadata.NewSQLiteRepository(db)
	history := recent.NewHistory(repo)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		reader:      bufio.NewReader(in),
		out:         out,
		now:         time.Now,
		session:     sess,
		backend:     backend,
		objects:     objects,
		history:     history,
		settings:    settings.NewService(repo),
		authService: services.NewAuthService(backend, repo, sess),
		posts:       posts.NewService(backend, objects, media.NewPipeline(objects, logger), sess, logger),
		search: search.NewEngine(backend, history, logger,
			search.WithDebounce(c.SearchDebounce),
			search.WithRequestTimeout(c.RequestTimeout),
		),
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.Identity()
	return ok
}

// startFeed opens a feed for the signed-in user.
func (a *App) startFeed(ctx context.Context) {
	a.mu.Lock()
	if a.feed != nil {
		a.mu.Unlock()
		return
	}
	f := feed.NewSynchronizer(a.backend, a.logger, feed.WithRequestTimeout(a.config.RequestTimeout))
	a.feed = f
	a.mu.Unlock()

	f.Start(ctx)
}

func (a *App) stopFeed() {
	a.mu.Lock()
	f := a.feed
	a.feed = nil
	a.mu.Unlock()

	if f != nil {
		_ = f.Close()
	}
}

func (a *App) currentFeed() *feed.Synchronizer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.feed
}

// Run restores the previous session, starts the connectivity watcher and
// blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.Close(context.WithoutCancel(ctx))
	defer cancel()

	if err := a.history.Load(ctx); err != nil {
		a.logger.Error(ctx, "failed to load recent searches", "error", err)
	}

	fmt.Fprintln(a.out, "Welcome to Framez CLI (type 'help' for commands)")
	if id, ok := a.authService.Restore(ctx); ok {
		fmt.Fprintf(a.out, "Signed in as %s\n", id.Name)
		a.startFeed(ctx)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close releases everything NewApp acquired.
func (a *App) Close(ctx context.Context) {
	a.stopFeed()
	a.search.Close()
	if err := a.authService.Close(ctx); err != nil {
		a.logger.Error(ctx, "failed to close backend", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error(ctx, "failed to close database", "error", err)
	}
}

func (a *App) getStatus() string {
	s := ""
	if id, ok := a.session.Identity(); ok {
		s = id.Name + " "
	}
	s += string(a.getMode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
