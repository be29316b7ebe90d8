// Package recent keeps the bounded, persisted list of recent searches.
package recent

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/framez/internal/client/repositories/metadata"
)

// MaxEntries caps the history length.
const MaxEntries = 5

// Normalize lowercases and trims a query the way the history stores it.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// History is ordered most recent first and safe for concurrent use.
type History struct {
	repo metadata.Repository

	mu      sync.Mutex
	entries []string
}

func NewHistory(repo metadata.Repository) *History {
	return &History{repo: repo}
}

// Load reads the persisted list, replacing the in-memory one.
func (h *History) Load(ctx context.Context) error {
	var entries []string
	if _, err := metadata.GetJSON(ctx, h.repo, metadata.KeyRecentSearches, &entries); err != nil {
		return err
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = entries
	return nil
}

func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Add records query at the front. A repeated query moves to the front
// without growing the list. Empty queries are ignored.
func (h *History) Add(ctx context.Context, query string) error {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]string, 0, MaxEntries)
	next = append(next, q)
	for _, e := range h.entries {
		if e != q && len(next) < MaxEntries {
			next = append(next, e)
		}
	}

	if err := metadata.SetJSON(ctx, h.repo, metadata.KeyRecentSearches, next); err != nil {
		return err
	}
	h.entries = next
	return nil
}

func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.repo.Delete(ctx, metadata.KeyRecentSearches); err != nil {
		return err
	}
	h.entries = nil
	return nil
}
