package common

// RefreshTokenCookieName is the cookie carrying the opaque refresh token.
const RefreshTokenCookieName = "refreshToken"

// Role names seeded by the initial migration.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Pseudo IP addresses recorded as RevokedByIP when revocation is not
// triggered by a client request.
const (
	RevokedByAutoCleanup = "auto-cleanup"
	RevokedByAdminBlock  = "admin-block"
	UnknownIP            = "unknown"
)
