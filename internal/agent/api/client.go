// Package api talks to the remote session-URI backend. The backend hands
// out pre-authorized upload endpoints; everything else about it is opaque
// to the agent.
package api

import "context"

// TokenProvider supplies the bearer token attached to session-URI requests.
// The agent treats it as an opaque dependency; refresh is the provider's
// concern.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client is the remote API surface the agent consumes.
type Client interface {
	// FetchSessionURIs requests one resumable upload endpoint per expected
	// artifact file for the given folder. Any non-200 response is an error.
	FetchSessionURIs(ctx context.Context, folderName string) (map[string]string, error)

	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (string, error)

	// Ping probes backend reachability.
	Ping(ctx context.Context) error
}
