package domain

import "errors"

var (
	ErrNotLoggedIn     = errors.New("please log in")
	ErrInvalidForm     = errors.New("invalid listing data")
	ErrBikeNotFound    = errors.New("bike not found")
	ErrNoListingLoaded = errors.New("no listing loaded for edit")
)

// FieldError is a form validation failure with a user-facing message.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrInvalidForm }

// APIError is a non-2xx answer from the listings API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool {
	return target == ErrBikeNotFound && e.StatusCode == 404
}
