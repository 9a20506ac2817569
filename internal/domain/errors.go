package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrInvalidPostID is returned when the post ID is not an integer.
	ErrInvalidPostID = errors.New("bad post ID")

	// ErrMissingUsername is returned when no blog name is given.
	ErrMissingUsername = errors.New("no username provided")

	// ErrKeyNotFound is returned by a store when a key has never been written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTokenRefreshFailed is returned when the refresh grant is rejected.
	ErrTokenRefreshFailed = errors.New("token refresh failed")
)

// APIError is a failure reported by the platform itself, as opposed to a
// transport or decoding fault.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("tumblr API error (status %d): %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("tumblr API error (status %d): %s", e.Status, e.Message)
}

// Description is the message shown to users: the platform message, followed
// by the first error detail when one was given.
func (e *APIError) Description() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// AsAPIError unwraps err to an *APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// PostError wraps an error with post context.
type PostError struct {
	Blog   string
	PostID PostID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	if e.PostID != "" {
		return e.Op + " [" + e.Blog + "/" + e.PostID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// NewPostError creates a new PostError.
func NewPostError(blog string, postID PostID, op string, err error) *PostError {
	return &PostError{
		Blog:   blog,
		PostID: postID,
		Op:     op,
		Err:    err,
	}
}
