package models

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Identity is who the client is acting as, decoded from the access token.
type Identity struct {
	UserID string
	Name   string
}
