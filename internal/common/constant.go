package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// requests to the session-URI API.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "
