// Package common contains shared constants and sentinel errors used across
// the server components.
package common

// AuthorizationHeader carries the access token as "Bearer <token>" on
// authenticated HTTP requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeader.
const BearerPrefix = "Bearer "
