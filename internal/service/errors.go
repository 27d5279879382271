package service

import "errors"

// Service errors mapped to HTTP status codes by the handlers
var (
	ErrNotFound               = errors.New("not found")
	ErrSnapshotUnavailable    = errors.New("snapshot not available yet")
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrRegenerationInProgress = errors.New("regeneration already in progress")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
)
