package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/framez/internal/client/media"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
)

const previewLen = 40

func (a *App) printPosts(posts []*models.Post, empty string) {
	if len(posts) == 0 {
		if empty != "" {
			fmt.Fprintln(a.out, empty)
		}
		return
	}

	now := a.now()
	for _, p := range posts {
		owner := ""
		if a.posts.CanModify(p) {
			owner = " *"
		}
		fmt.Fprintf(a.out, "[%s]%s %s · %s\n", p.ID, owner, p.AuthorName, models.FormatAge(p.CreatedAt, now))
		if p.Content != "" {
			for _, line := range strings.Split(p.Content, "\n") {
				fmt.Fprintf(a.out, "    %s\n", line)
			}
		}
		if p.HasImage() {
			fmt.Fprintf(a.out, "    image: %s\n", *p.ImageURL)
		}
	}
}

func preview(content string) string {
	r := []rune(strings.ReplaceAll(content, "\n", " "))
	if len(r) <= previewLen {
		return string(r)
	}
	return string(r[:previewLen]) + "..."
}

// userMessage maps service errors onto what the user can act on.
func userMessage(err error) string {
	var (
		readErr   *media.ReadError
		uploadErr *media.UploadError
	)
	switch {
	case errors.Is(err, common.ErrNotConfirmed):
		return "Cancelled."
	case errors.As(err, &readErr):
		return fmt.Sprintf("Could not read image %q.", readErr.Ref)
	case errors.As(err, &uploadErr):
		return "Image upload failed. Try again."
	case errors.Is(err, common.ErrInvalidContent):
		return "Invalid input: " + err.Error()
	case errors.Is(err, common.ErrAuthorization):
		return "You can only change your own posts."
	case errors.Is(err, common.ErrNotFound):
		return "Not found."
	case errors.Is(err, common.ErrAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrInvalidToken):
		return "Invalid credentials or expired session. Please log in."
	case errors.Is(err, common.ErrUnavailable):
		return "Server unavailable. Try again later."
	default:
		return "Error: " + err.Error()
	}
}
