package service

import (
	"testing"
	"time"

	"it-inventory/internal/entities"
	apperrors "it-inventory/pkg/errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	actor := entities.Actor{ID: 7, Username: "admin", Role: entities.RoleAdmin}

	token, issued, err := svc.GenerateToken(actor)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, entities.RoleAdmin, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	_, a, err := svc.GenerateToken(entities.Actor{ID: 1})
	require.NoError(t, err)
	_, b, err := svc.GenerateToken(entities.Actor{ID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestJWTService_Expired(t *testing.T) {
	s := NewJWTService("secret", time.Minute).(*jwtService)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := s.GenerateToken(entities.Actor{ID: 1})
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).GenerateToken(entities.Actor{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &JwtCustomClaim{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ID: "x"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSigningMethod)
}
