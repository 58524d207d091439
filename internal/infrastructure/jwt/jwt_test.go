package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	s := New("super-secret", 7*24*time.Hour)
	userID := "7f1e5a43-8f5a-4a3e-9a57-4b0f7b0f0d11"

	tok, err := s.GenerateJWT(userID)
	require.NoError(t, err, "GenerateJWT should not error")
	require.NotEmpty(t, tok, "token must not be empty")

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err, "ValidateToken should not error for fresh token")
	require.NotNil(t, claims)

	assert.Equal(t, userID, claims.ID)
	assert.Equal(t, userID, claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken_Table(t *testing.T) {
	makeToken := func(secret string, exp time.Duration) string {
		s := New(secret, exp)
		tok, err := s.GenerateJWT("user-42")
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		secret string
		token  string
		ok     bool
	}{
		{name: "valid token", secret: "k1", token: makeToken("k1", 5*time.Minute), ok: true},
		{name: "invalid secret (signature mismatch)", secret: "k2", token: makeToken("k1", 5*time.Minute)},
		{name: "expired token", secret: "k1", token: makeToken("k1", -1*time.Minute)},
		{name: "malformed token string", secret: "k1", token: "not-a-jwt"},
		{name: "literal null", secret: "k1", token: "null"},
		{
			name:   "alg none rejected",
			secret: "k1",
			token: func() string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
					ID: "user-42",
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return tok
			}(),
		},
		{
			name:   "missing id claim",
			secret: "k1",
			token: func() string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}).SignedString([]byte("k1"))
				require.NoError(t, err)
				return tok
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.secret, time.Hour)

			claims, err := s.ValidateToken(tt.token)
			if tt.ok {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, "user-42", claims.ID)
			} else {
				require.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, claims)
			}
		})
	}
}
