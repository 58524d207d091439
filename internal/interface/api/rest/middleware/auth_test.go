package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/jwt"
)

const testSecret = "test-secret"

type FakeUserFinder struct {
	FindUserByIDFunc func(ctx context.Context, id user.UUID) (*user.User, error)
}

func (f *FakeUserFinder) FindUserByID(ctx context.Context, id user.UUID) (*user.User, error) {
	if f.FindUserByIDFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FindUserByIDFunc(ctx, id)
}

func signToken(t *testing.T, secret, id string, exp time.Duration) string {
	t.Helper()
	claims := jwt.Claims{
		ID: id,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(exp)),
		},
	}
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	known := &user.User{UUID: uuid.New(), Username: "john", Email: "john@example.com"}
	finder := &FakeUserFinder{
		FindUserByIDFunc: func(_ context.Context, id user.UUID) (*user.User, error) {
			switch id {
			case known.UUID:
				return known, nil
			case uuid.Nil:
				return nil, errors.New("db down")
			}
			return nil, nil
		},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized, wantMsg: MsgNoAuthHeader},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMsg: MsgNoAuthHeader},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantMsg: MsgNoToken},
		{name: "null token", header: "Bearer null", wantStatus: http.StatusUnauthorized, wantMsg: MsgNoToken},
		{name: "undefined token", header: "Bearer undefined", wantStatus: http.StatusUnauthorized, wantMsg: MsgNoToken},
		{name: "garbage", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized, wantMsg: MsgInvalidToken},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", known.UUID.String(), time.Hour), wantStatus: http.StatusUnauthorized, wantMsg: MsgInvalidToken},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, known.UUID.String(), -time.Minute), wantStatus: http.StatusUnauthorized, wantMsg: MsgInvalidToken},
		{name: "id not a uuid", header: "Bearer " + signToken(t, testSecret, "42", time.Hour), wantStatus: http.StatusUnauthorized, wantMsg: MsgInvalidToken},
		{name: "deleted user", header: "Bearer " + signToken(t, testSecret, uuid.NewString(), time.Hour), wantStatus: http.StatusUnauthorized, wantMsg: MsgUserNotExists},
		{name: "store failure", header: "Bearer " + signToken(t, testSecret, uuid.Nil.String(), time.Hour), wantStatus: http.StatusInternalServerError, wantMsg: MsgInternalServer},
		{name: "ok", header: "Bearer " + signToken(t, testSecret, known.UUID.String(), time.Hour), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", AuthMiddleware(jwt.New(testSecret, time.Hour), finder, zap.NewNop()), func(c *gin.Context) {
				caller, ok := CallerFrom(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"id": caller.ID, "email": caller.Email})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			if tt.wantMsg != "" {
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, tt.wantMsg, body["message"])
				return
			}
			assert.Equal(t, known.UUID.String(), body["id"])
			assert.Equal(t, known.Email, body["email"])
		})
	}
}

func TestCallerFrom_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CallerFrom(c)
	assert.False(t, ok)
}
