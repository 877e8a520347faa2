package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid occurs when a bearer token is missing, expired or revoked.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrForbidden indicates the actor lacks permission.
	ErrForbidden = errors.New("forbidden")
)

// UserSafeMessage maps internal errors to messages safe to surface verbatim.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrTokenInvalid):
		return "Session expired, please sign in again"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission for this action"
	default:
		return "Something went wrong, please try again"
	}
}
