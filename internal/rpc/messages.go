package rpc

import (
	"time"

	"github.com/dmitrijs2005/framez/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// UpdateProfileRequest changes the caller's display name. The response
// carries a fresh token so the client identity picks up the new name.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type UpdateProfileResponse struct {
	AccessToken string `json:"access_token"`
}

// InsertPostRequest carries the new row. UserID is ignored by the server
// and taken from the access token instead.
type InsertPostRequest struct {
	Post models.Post `json:"post"`
}

type InsertPostResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdatePostRequest struct {
	ID    string           `json:"id"`
	Patch models.PostPatch `json:"patch"`
}

type UpdatePostResponse struct{}

type DeletePostRequest struct {
	ID string `json:"id"`
}

type DeletePostResponse struct{}

type SelectPostsRequest struct {
	Filter models.PostFilter `json:"filter"`
}

type SelectPostsResponse struct {
	Posts []*models.Post `json:"posts"`
}

type SubscribeRequest struct {
	Collection string           `json:"collection"`
	Mask       models.EventMask `json:"mask"`
}
