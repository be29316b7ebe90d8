package common

import "errors"

var (

	// local resource unavailable (image unreadable, unknown extension)
	ErrRead = errors.New("read error")

	// object-store write failed
	ErrUpload = errors.New("upload error")

	// remote CRUD/query failed
	ErrStore = errors.New("store error")

	// mutation attempted by non-owner
	ErrAuthorization = errors.New("not authorized")

	// repository specific errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// validation errors
	ErrInvalidContent = errors.New("invalid content")

	// destructive action was not confirmed by the user
	ErrNotConfirmed = errors.New("not confirmed")

	// session errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")

	// remote store unreachable
	ErrUnavailable = errors.New("service unavailable")

	ErrInternal = errors.New("internal error")
)
