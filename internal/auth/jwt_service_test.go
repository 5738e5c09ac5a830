package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/model"
)

const testSecret = "test-secret-with-at-least-32-bytes!!"

func testIdentity() Identity {
	return Identity{
		ID:    "5f1c3a7e-2b9d-4c11-9a55-0e7f2d1b8c44",
		Email: "ada@example.com",
		Name:  "Ada",
		Role:  model.RoleAuthor,
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	token, err := svc.GenerateToken(testIdentity())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	id := testIdentity()
	assert.Equal(t, id.ID, claims.UserID)
	assert.Equal(t, id.Email, claims.Email)
	assert.Equal(t, id.Name, claims.Name)
	assert.Equal(t, id.Role, claims.Role)
	assert.Equal(t, id.ID, claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	a, err := svc.GenerateToken(testIdentity())
	require.NoError(t, err)
	b, err := svc.GenerateToken(testIdentity())
	require.NoError(t, err)

	ca, err := svc.ValidateToken(a)
	require.NoError(t, err)
	cb, err := svc.ValidateToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestJWTService_DefaultExpiry(t *testing.T) {
	assert.Equal(t, DefaultTokenExpiry, NewJWTService(testSecret, 0).Expiry())
	assert.Equal(t, 7*24*time.Hour, DefaultTokenExpiry)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	valid, err := svc.GenerateToken(testIdentity())
	require.NoError(t, err)

	expiredSvc := NewJWTService(testSecret, time.Hour)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.GenerateToken(testIdentity())
	require.NoError(t, err)

	other, err := NewJWTService("another-secret-with-32-bytes-or-more", time.Hour).GenerateToken(testIdentity())
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tamperedPayload, err := NewJWTService(testSecret, time.Hour).GenerateToken(Identity{ID: "someone-else", Role: model.RoleAdmin})
	require.NoError(t, err)
	tampered := parts[0] + "." + strings.Split(tamperedPayload, ".")[1] + "." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "x", Role: model.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := svc.GenerateToken(Identity{Email: "ghost@example.com", Role: model.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", other},
		{"tampered payload", tampered},
		{"alg none", unsigned},
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"missing user id", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestClaims_HasRole(t *testing.T) {
	c := &Claims{Role: model.RoleAuthor}
	assert.True(t, c.HasRole(model.RoleAdmin, model.RoleAuthor))
	assert.False(t, c.HasRole(model.RoleAdmin))
	assert.False(t, c.HasRole())
}
