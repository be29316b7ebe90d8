package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/framez/internal/client/feed"
	"github.com/dmitrijs2005/framez/internal/models"
)

// Feed prints the current feed snapshot.
func (a *App) Feed(ctx context.Context) error {
	f := a.currentFeed()
	if f == nil {
		a.startFeed(ctx)
		f = a.currentFeed()
	}
	a.printSnapshot(f.Snapshot())
	return nil
}

// Refresh re-fetches the feed and prints it.
func (a *App) Refresh(ctx context.Context) error {
	f := a.currentFeed()
	if f == nil {
		return a.Feed(ctx)
	}
	f.Refresh(ctx)
	a.printSnapshot(f.Snapshot())
	return nil
}

func (a *App) printSnapshot(s feed.Snapshot) {
	switch {
	case s.Busy() && len(s.Posts) == 0:
		fmt.Fprintln(a.out, "Loading posts...")
		return
	case s.State == feed.Failed:
		fmt.Fprintln(a.out, s.Err)
		if len(s.Posts) == 0 {
			return
		}
	}
	a.printPosts(s.Posts, "No posts yet.")
}

// Post reads a body and an optional image path and publishes a post.
func (a *App) Post(ctx context.Context) error {
	content, err := GetMultiline(a.reader, "Write your post", a.out)
	if err != nil {
		return err
	}
	image, err := getSimpleText(a.reader, "Image path (leave empty for none)", a.out)
	if err != nil {
		return err
	}

	post, err := a.posts.Create(ctx, content, image)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posted %s\n", post.ID)
	a.refreshAfterMutation(ctx)
	return nil
}

// Edit replaces the body of one of the user's posts.
func (a *App) Edit(ctx context.Context, id string) error {
	content, err := GetMultiline(a.reader, "New content", a.out)
	if err != nil {
		return err
	}
	if err := a.posts.Edit(ctx, id, content); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post updated.")
	a.refreshAfterMutation(ctx)
	return nil
}

// Delete removes one of the user's posts after a y/N confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	confirm := func(_ context.Context, p *models.Post) bool {
		return Confirm(a.reader, fmt.Sprintf("Delete post %q?", preview(p.Content)), a.out)
	}
	if err := a.posts.Delete(ctx, id, confirm); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post deleted.")
	a.refreshAfterMutation(ctx)
	return nil
}

// Mine lists the signed-in user's posts.
func (a *App) Mine(ctx context.Context) error {
	posts, err := a.posts.ListByOwner(ctx, "")
	if err != nil {
		return err
	}
	a.printPosts(posts, "You have not posted anything yet.")
	return nil
}

// refreshAfterMutation covers backends without change notifications.
func (a *App) refreshAfterMutation(ctx context.Context) {
	if f := a.currentFeed(); f != nil {
		f.Refresh(ctx)
	}
}
