package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key-must-be-at-least-32-chars-long-for-hmac"
	testIssuer = "agileboard"
)

// Helper function to create a valid JWT token for testing
func createTestToken(secret, issuer string, claims *CustomClaims, exp time.Time) string {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func TestHS256Validator_ValidToken(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	claims := &CustomClaims{
		UserID:   "user-67890",
		Username: "alice",
	}
	token := createTestToken(testSecret, testIssuer, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.UserID)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestHS256Validator_InvalidSignature(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	wrongSecret := "wrong-secret-key-must-be-at-least-32-chars-long"
	claims := &CustomClaims{
		UserID:   "user-67890",
		Username: "alice",
	}
	token := createTestToken(wrongSecret, testIssuer, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidSignature, authErr.Reason)
}

func TestHS256Validator_ExpiredToken(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	claims := &CustomClaims{
		UserID:   "user-67890",
		Username: "alice",
	}
	token := createTestToken(testSecret, testIssuer, claims, time.Now().Add(-2*time.Hour))

	result, err := validator.Validate(token)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureTokenExpired, authErr.Reason)
}

func TestHS256Validator_ExpiredWithinClockSkew(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	claims := &CustomClaims{
		UserID:   "user-67890",
		Username: "alice",
	}
	// Expired 30 seconds ago, inside the 60 second leeway.
	token := createTestToken(testSecret, testIssuer, claims, time.Now().Add(-30*time.Second))

	result, err := validator.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, "alice", result.Username)
}

func TestHS256Validator_WrongIssuer(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	claims := &CustomClaims{
		UserID:   "user-67890",
		Username: "alice",
	}
	token := createTestToken(testSecret, "someone-else", claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
}

func TestHS256Validator_MissingUsernameClaim(t *testing.T) {
	validator := NewHS256Validator([]byte(testSecret), testIssuer, 60*time.Second)

	claims := &CustomClaims{
		UserID: "user-67890",
	}
	token := createTestToken(testSecret, testIssuer, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token)

	require.Error(t, err)
	assert.Nil(t, result)
}
