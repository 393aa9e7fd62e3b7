package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Validator verifies JWTs issued by the identity system. All
// services share one symmetric secret; there is no key rotation or
// remote JWKS lookup in this deployment.
type HS256Validator struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

func NewHS256Validator(secret []byte, issuer string, clockSkew time.Duration) *HS256Validator {
	return &HS256Validator{
		secret:    secret,
		issuer:    issuer,
		clockSkew: clockSkew,
	}
}

// Validate parses and verifies a token, returning its claims. Failures
// come back as *AuthError so the middleware can report a precise code.
func (v *HS256Validator) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, v.keyFunc,
		jwt.WithLeeway(v.clockSkew), jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, NewAuthError(AuthFailureUnknown, fmt.Sprintf("invalid token: valid=%v", token.Valid), nil)
	}

	if err := claims.Validate(); err != nil {
		return nil, NewAuthError(AuthFailureUnknown, "invalid claims", err)
	}
	return claims, nil
}

// keyFunc rejects any token not signed with HMAC before releasing the
// secret. An RS256 token with alg confusion must never verify.
func (v *HS256Validator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return v.secret, nil
}

func mapParseError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return NewAuthError(AuthFailureTokenExpired, "token expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return NewAuthError(AuthFailureInvalidSignature, "invalid signature", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return NewAuthError(AuthFailureInvalidIssuer, "invalid issuer", err)
	default:
		return NewAuthError(AuthFailureUnknown, "failed to parse token", err)
	}
}
