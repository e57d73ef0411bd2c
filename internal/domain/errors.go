package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when a username is already registered (case-insensitive)
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidMatchStatus is returned for a status outside pending/accepted/rejected
	ErrInvalidMatchStatus = errors.New("invalid match status")
	// ErrInvalidDream is returned when a dream lacks the identity fields every dream must carry
	ErrInvalidDream = errors.New("invalid dream")
)
