package auth

import "errors"

// AuthFailureReason identifies why token validation failed. The HTTP
// layer maps each reason to its own error code so clients can tell an
// expired token apart from a malformed one.
type AuthFailureReason string

const (
	AuthFailureMissingAuthorization AuthFailureReason = "missing_authorization"
	AuthFailureInvalidScheme        AuthFailureReason = "invalid_scheme"
	AuthFailureInvalidSignature     AuthFailureReason = "invalid_signature"
	AuthFailureInvalidIssuer        AuthFailureReason = "invalid_issuer"
	AuthFailureTokenExpired         AuthFailureReason = "token_expired"
	AuthFailureUnknown              AuthFailureReason = "unknown"
)

// AuthError carries a failure reason alongside the underlying cause.
type AuthError struct {
	Reason  AuthFailureReason
	Message string
	Err     error
}

func NewAuthError(reason AuthFailureReason, message string, err error) *AuthError {
	return &AuthError{Reason: reason, Message: message, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError unwraps err into an AuthError if one is in the chain.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
