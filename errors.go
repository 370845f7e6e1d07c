package crm

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes exposed in error payloads so API clients can branch without
// string-matching messages.
const (
	TextCodeTokenExpired           = "TOKEN_EXPIRED"
	TextCodeTokenMalformed         = "TOKEN_MALFORMED"
	TextCodeEmailTaken             = "EMAIL_TAKEN"
	TextCodeClientNotFound         = "CLIENT_NOT_FOUND"
	TextCodeProjectNotFound        = "PROJECT_NOT_FOUND"
	TextCodeClientInactive         = "CLIENT_INACTIVE"
	TextCodeClientHasOpenWork      = "CLIENT_HAS_OPEN_PROJECTS"
	TextCodeProjectDeleteForbidden = "PROJECT_DELETE_FORBIDDEN"
	TextCodeEmptyPatch             = "EMPTY_PATCH"
	TextCodeLoginThrottled         = "LOGIN_THROTTLED"
)

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token cannot be parsed.
var ErrTokenMalformed = errors.New("missing or malformed authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned when a protected operation has no valid subject.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated subject lacks the required role.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden)

// ErrMismatchedHashAndPassword is the generic credential failure; it hides
// whether the identifier or the password was wrong.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when no account matches the identifier.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrLoginThrottled is returned while an account is in the login cooldown window.
var ErrLoginThrottled = errors.New("too many attempts, account in cooldown", errors.CategoryAuth).
	WithTextCode(TextCodeLoginThrottled).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty secrets before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrClientNotFound is returned when a client id does not resolve.
var ErrClientNotFound = errors.New("client not found", errors.CategoryNotFound).
	WithTextCode(TextCodeClientNotFound).
	WithCode(errors.CodeNotFound)

// ErrProjectNotFound is returned when a project id does not resolve.
var ErrProjectNotFound = errors.New("project not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProjectNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailTaken is returned when another client already owns the email.
var ErrEmailTaken = errors.New("email already registered to another client", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrClientInactive is returned when a project references an inactive client.
var ErrClientInactive = errors.New("inactive client", errors.CategoryConflict).
	WithTextCode(TextCodeClientInactive).
	WithCode(errors.CodeConflict)

// ErrProjectDeleteForbidden is returned when a non-creator, non-admin
// subject attempts a project delete.
var ErrProjectDeleteForbidden = errors.New("only the creator or an admin can delete a project", errors.CategoryAuthz).
	WithTextCode(TextCodeProjectDeleteForbidden).
	WithCode(errors.CodeForbidden)

// ErrEmptyPatch is returned when an update carries no fields.
var ErrEmptyPatch = errors.New("update requires at least one field", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPatch).
	WithCode(errors.CodeBadRequest)

// NewClientHasOpenProjects builds the deactivation conflict carrying the
// offending project count so callers can report it.
func NewClientHasOpenProjects(count int) *errors.Error {
	return errors.New("client has projects in a non-terminal state", errors.CategoryConflict).
		WithTextCode(TextCodeClientHasOpenWork).
		WithCode(errors.CodeConflict).
		WithMetadata(map[string]any{
			"open_projects": count,
		})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
