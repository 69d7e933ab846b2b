package domain

import "errors"

// Errors returned by the stores and matched by the services.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUser      = errors.New("user with that username or email already exists")
	ErrDuplicateReview    = errors.New("review for this book by this user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
