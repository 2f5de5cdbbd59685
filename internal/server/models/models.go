// Package models contains the persisted entities of sessiond.
package models

import "time"

// User is an account allowed to request session URIs.
type User struct {
	ID           string
	Username     string
	PasswordHash string
}

// IssuedSession is an audit record written every time a set of session URIs
// is handed out for a recording folder.
type IssuedSession struct {
	ID         string
	UserID     string
	FolderName string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}
