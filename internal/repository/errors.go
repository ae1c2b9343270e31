package repository

import "errors"

var (
	// ErrRepositoryUnavailable indicates no fetcher can serve the URL
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
