// Package objectstore holds post images. Objects are addressed by a path
// inside one bucket and exposed through a public URL.
package objectstore

import (
	"context"
	"strings"
)

type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(ctx context.Context, path string) (string, error)
	Remove(ctx context.Context, path string) error
	// PathFromURL maps a public URL produced by this store back to its path.
	PathFromURL(url string) (string, bool)
}

// ContentType derives the image MIME type from a file extension.
func ContentType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "svg":
		return "image/svg+xml"
	default:
		return "image/" + ext
	}
}

// publicPrefix is the URL prefix under which objects of bucket are served.
func publicPrefix(baseURL, bucket string) string {
	return strings.TrimRight(baseURL, "/") + "/" + bucket + "/"
}

func pathFromURL(prefix, url string) (string, bool) {
	path, ok := strings.CutPrefix(url, prefix)
	if !ok || path == "" {
		return "", false
	}
	return path, true
}
