package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/framez/internal/common"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is a map backed Store. The Fail* fields inject errors.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	prefix  string
	removes []string

	FailUpload    error
	FailPublicURL error
	FailRemove    error
}

func NewMemoryStore(baseURL, bucket string) *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}, prefix: publicPrefix(baseURL, bucket)}
}

func (m *MemoryStore) Upload(_ context.Context, path string, data []byte, contentType string) error {
	if m.FailUpload != nil {
		return m.FailUpload
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (m *MemoryStore) PublicURL(_ context.Context, path string) (string, error) {
	if m.FailPublicURL != nil {
		return "", m.FailPublicURL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return "", fmt.Errorf("object[%s]: %w", path, common.ErrNotFound)
	}
	return m.prefix + path, nil
}

func (m *MemoryStore) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes = append(m.removes, path)
	if m.FailRemove != nil {
		return m.FailRemove
	}
	delete(m.objects, path)
	return nil
}

func (m *MemoryStore) PathFromURL(url string) (string, bool) {
	return pathFromURL(m.prefix, url)
}

// Paths lists stored object paths.
func (m *MemoryStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}

// Object returns the stored bytes and content type of path.
func (m *MemoryStore) Object(path string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[path]
	return o.data, o.contentType, ok
}

// Removes lists every Remove attempt, failed ones included.
func (m *MemoryStore) Removes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removes...)
}
