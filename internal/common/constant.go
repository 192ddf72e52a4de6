package common

// Cookie names used by the HTTP transport to carry the token pair.
const (
	AccessTokenCookieName  = "Access-Token"
	RefreshTokenCookieName = "Refresh-Token"
)

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"
