// Package common defines shared constants and sentinel errors used across
// the agent and sessiond layers of capsync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository/state-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrFolderNotFound = errors.New("recording folder not found")

	// Persisted state errors.
	ErrStateCorrupt = errors.New("state file failed validation")
	ErrLockTimeout  = errors.New("state lock not acquired")

	// Remote session-URI API errors. The HTTP client logs transport
	// detail and surfaces only this stable value.
	ErrRemoteAPI = errors.New("session uri request failed")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
