package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
