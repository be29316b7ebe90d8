package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Search runs a query through the debounced engine and waits for it to
// settle.
func (a *App) Search(ctx context.Context, query string) error {
	a.search.SetQuery(ctx, query)
	return a.awaitSearch(ctx)
}

func (a *App) awaitSearch(ctx context.Context) error {
	rs, err := a.search.Await(ctx)
	if err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(rs.Query) == "":
		fmt.Fprintln(a.out, "Type a query to search posts.")
	case rs.Failed:
		fmt.Fprintln(a.out, "Search failed. Try again.")
	default:
		fmt.Fprintf(a.out, "Found %d posts\n", len(rs.Posts))
		a.printPosts(rs.Posts, "")
	}
	return nil
}

// Recent lists the stored search history, most recent first.
func (a *App) Recent(_ context.Context) error {
	entries := a.history.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No recent searches.")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, e)
	}
	return nil
}

// Recall re-runs the n-th recent search (1-based).
func (a *App) Recall(ctx context.Context, n string) error {
	entries := a.history.Entries()
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(entries) {
		fmt.Fprintf(a.out, "No recent search #%s\n", n)
		return nil
	}
	a.search.Recall(ctx, entries[i-1])
	return a.awaitSearch(ctx)
}

// ClearRecent forgets the search history.
func (a *App) ClearRecent(ctx context.Context) error {
	if err := a.history.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Recent searches cleared.")
	return nil
}
