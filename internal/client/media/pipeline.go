// Package media uploads post images to the object store.
package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/framez/internal/client/objectstore"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/filex"
	"github.com/dmitrijs2005/framez/internal/logging"
)

var readFile = os.ReadFile

// ReadError reports that the local image could not be used.
type ReadError struct {
	Ref string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read image %q: %v", e.Ref, e.Err)
}

func (e *ReadError) Unwrap() []error {
	return []error{common.ErrRead, e.Err}
}

// UploadError reports a failed upload. OrphanPath is set when the blob was
// written but its URL could not be resolved; nothing removes it.
type UploadError struct {
	Path       string
	OrphanPath string
	Err        error
}

func (e *UploadError) Error() string {
	if e.OrphanPath != "" {
		return fmt.Sprintf("resolve url for %s: %v", e.OrphanPath, e.Err)
	}
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{common.ErrUpload, e.Err}
}

type Pipeline struct {
	store  objectstore.Store
	logger logging.Logger
	now    func() time.Time
}

func NewPipeline(store objectstore.Store, l logging.Logger) *Pipeline {
	return &Pipeline{store: store, logger: l.With("module", "media"), now: time.Now}
}

// ObjectPath is the blob path for an image uploaded by ownerID at t.
func ObjectPath(ownerID string, t time.Time, ext string) string {
	return ownerID + "/" + strconv.FormatInt(t.UnixMilli(), 10) + "." + ext
}

// Upload stores the image at localRef under ownerID and returns its public
// URL. On error at most one blob exists, and only when the error carries
// an OrphanPath.
func (p *Pipeline) Upload(ctx context.Context, localRef, ownerID string) (string, error) {
	ext := filex.Ext(localRef)
	if ext == "" {
		return "", &ReadError{Ref: localRef, Err: fmt.Errorf("no file extension")}
	}

	data, err := readFile(filex.LocalPath(localRef))
	if err != nil {
		return "", &ReadError{Ref: localRef, Err: err}
	}

	path := ObjectPath(ownerID, p.now(), ext)
	if err := p.store.Upload(ctx, path, data, objectstore.ContentType(ext)); err != nil {
		p.logger.Error(ctx, "image upload failed", "path", path, "error", err)
		return "", &UploadError{Path: path, Err: err}
	}

	url, err := p.store.PublicURL(ctx, path)
	if err != nil {
		p.logger.Warn(ctx, "orphaned image blob", "path", path, "error", err)
		return "", &UploadError{Path: path, OrphanPath: path, Err: err}
	}

	p.logger.Debug(ctx, "image uploaded", "path", path, "bytes", len(data))
	return url, nil
}
