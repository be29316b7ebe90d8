// Package common contains shared constants and sentinel errors used across
// Framez components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PostsCollection is the only collection exposed by the content store.
const PostsCollection = "posts"

// ImageBucket is the default object-store bucket for post images.
const ImageBucket = "post-images"
