package client

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var memorySigningKey = []byte("framez-memory-backend")

type memoryUser struct {
	id           string
	name         string
	passwordHash []byte
}

type memoryRow struct {
	post models.Post
	seq  uint64
}

// MemoryStore is an in-process Backend. It enforces the same ownership and
// content rules as the server and emits change events to subscribers.
//
// The On* hooks run before the corresponding operation; a non-nil error
// aborts it. They must be set before the store is shared.
type MemoryStore struct {
	session *session.Session
	now     func() time.Time

	mu    sync.Mutex
	users map[string]*memoryUser
	rows  map[string]*memoryRow
	seq   uint64
	subs  map[*memorySubscription]struct{}

	OnInsert func(post *models.Post) error
	OnUpdate func(id string) error
	OnDelete func(id string) error
	OnSelect func(ctx context.Context, filter models.PostFilter) error
}

func NewMemoryStore(sess *session.Session) *MemoryStore {
	return &MemoryStore{
		session: sess,
		now:     time.Now,
		users:   map[string]*memoryUser{},
		rows:    map[string]*memoryRow{},
		subs:    map[*memorySubscription]struct{}{},
	}
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	subs := make([]*memorySubscription, 0, len(m.subs))
	for s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Register(_ context.Context, email, name, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.TrimSpace(name) == "" || len(password) < 6 {
		return fmt.Errorf("invalid registration: %w", common.ErrInvalidContent)
	}
	key := strings.ToLower(addr.Address)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStore, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[key]; exists {
		return fmt.Errorf("user %s: %w", key, common.ErrAlreadyExists)
	}
	m.users[key] = &memoryUser{id: uuid.NewString(), name: strings.TrimSpace(name), passwordHash: hash}
	return nil
}

func (m *MemoryStore) Login(_ context.Context, email, password string) (string, error) {
	m.mu.Lock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	m.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return "", common.ErrUnauthenticated
	}
	return m.issueToken(u)
}

func (m *MemoryStore) UpdateProfile(_ context.Context, name string) (string, error) {
	id, err := m.identity()
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty name: %w", common.ErrInvalidContent)
	}

	m.mu.Lock()
	var user *memoryUser
	for _, u := range m.users {
		if u.id == id.UserID {
			u.name = name
			user = u
			break
		}
	}
	m.mu.Unlock()

	if user == nil {
		return "", fmt.Errorf("user %s: %w", id.UserID, common.ErrNotFound)
	}
	return m.issueToken(user)
}

func (m *MemoryStore) issueToken(u *memoryUser) (string, error) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.id,
		"name":    u.name,
		"iat":     m.now().Unix(),
	}).SignedString(memorySigningKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStore, err)
	}
	return tok, nil
}

func (m *MemoryStore) identity() (models.Identity, error) {
	id, ok := m.session.Identity()
	if !ok {
		return models.Identity{}, common.ErrUnauthenticated
	}
	return id, nil
}

func (m *MemoryStore) Insert(_ context.Context, post *models.Post) (string, error) {
	id, err := m.identity()
	if err != nil {
		return "", err
	}
	if m.OnInsert != nil {
		if err := m.OnInsert(post); err != nil {
			return "", err
		}
	}

	row := *post
	row.UserID = id.UserID
	if row.AuthorName == "" {
		row.AuthorName = id.Name
	}
	if err := row.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.seq++
	row.ID = uuid.NewString()
	row.CreatedAt = m.now()
	m.rows[row.ID] = &memoryRow{post: row, seq: m.seq}
	m.mu.Unlock()

	post.ID = row.ID
	post.UserID = row.UserID
	post.CreatedAt = row.CreatedAt
	m.Emit(models.ChangeEvent{Collection: common.PostsCollection, Type: models.ChangeCreate, ID: row.ID})
	return row.ID, nil
}

// ownedRow returns the row if the caller owns it. Callers hold m.mu.
func (m *MemoryStore) ownedRow(userID, id string) (*memoryRow, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, common.ErrNotFound)
	}
	if row.post.UserID != userID {
		return nil, fmt.Errorf("post %s: %w", id, common.ErrAuthorization)
	}
	return row, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, patch models.PostPatch) error {
	who, err := m.identity()
	if err != nil {
		return err
	}
	if m.OnUpdate != nil {
		if err := m.OnUpdate(id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	row, err := m.ownedRow(who.UserID, id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if patch.Content != nil {
		next := row.post
		next.Content = *patch.Content
		if err := next.Validate(); err != nil {
			m.mu.Unlock()
			return err
		}
		row.post = next
	}
	m.mu.Unlock()

	m.Emit(models.ChangeEvent{Collection: common.PostsCollection, Type: models.ChangeUpdate, ID: id})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	who, err := m.identity()
	if err != nil {
		return err
	}
	if m.OnDelete != nil {
		if err := m.OnDelete(id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if _, err := m.ownedRow(who.UserID, id); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.rows, id)
	m.mu.Unlock()

	m.Emit(models.ChangeEvent{Collection: common.PostsCollection, Type: models.ChangeDelete, ID: id})
	return nil
}

func (m *MemoryStore) Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	if m.OnSelect != nil {
		if err := m.OnSelect(ctx, filter); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	rows := make([]*memoryRow, 0, len(m.rows))
	for _, r := range m.rows {
		if filter.Matches(&r.post) {
			rows = append(rows, r)
		}
	}
	m.mu.Unlock()

	slices.SortFunc(rows, func(a, b *memoryRow) int {
		c := a.post.CreatedAt.Compare(b.post.CreatedAt)
		if c == 0 {
			c = compareSeq(a.seq, b.seq)
		}
		if filter.Order == models.OldestFirst {
			return c
		}
		return -c
	})

	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]*models.Post, len(rows))
	for i, r := range rows {
		p := r.post
		out[i] = &p
	}
	return out, nil
}

func compareSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *MemoryStore) Subscribe(_ context.Context, collection string, mask models.EventMask) (Subscription, error) {
	if collection != common.PostsCollection {
		return nil, fmt.Errorf("collection %q: %w", collection, common.ErrNotFound)
	}
	if mask == 0 {
		mask = models.MaskAll
	}

	s := &memorySubscription{
		store:  m,
		mask:   mask,
		events: make(chan models.ChangeEvent, subscriptionBuffer),
	}
	m.mu.Lock()
	m.subs[s] = struct{}{}
	m.mu.Unlock()
	return s, nil
}

// Emit delivers ev to every matching subscriber. It never blocks: a full
// subscriber misses the event.
func (m *MemoryStore) Emit(ev models.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for s := range m.subs {
		if !s.mask.Has(ev.Type) {
			continue
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions.
func (m *MemoryStore) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

type memorySubscription struct {
	store  *MemoryStore
	mask   models.EventMask
	events chan models.ChangeEvent
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s)
		close(s.events)
		s.store.mu.Unlock()
		for range s.events {
		}
	})
	return nil
}
