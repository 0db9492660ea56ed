package repository

import "errors"

var (
	// ErrInvalidMediaURL indicates an empty or malformed media location
	ErrInvalidMediaURL = errors.New("invalid media URL")

	// ErrRepositoryUnavailable indicates no fetcher is configured
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
