package constants

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "planner_session"

// ContextKeyUserID is the key used for the authenticated user ID in both the
// session and the gin context.
const ContextKeyUserID = "user_id"

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

// Pagination limits.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
