package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/jwt"
	"gallery-api/internal/interface/api/rest/response"
)

const (
	CtxCaller = "caller"

	bearerPrefix = "Bearer "

	MsgNoAuthHeader   = "no or invalid authorization header provided"
	MsgNoToken        = "no token provided"
	MsgInvalidToken   = "invalid or expired token"
	MsgUserNotExists  = "user no longer exists"
	MsgInternalServer = "internal server error"
)

type UserFinder interface {
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
}

// Caller is the authenticated user attached to the request.
type Caller struct {
	ID       uuid.UUID
	Username string
	Email    string
}

func AuthMiddleware(jwtService *jwt.Service, users UserFinder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Fail(c, http.StatusUnauthorized, MsgNoAuthHeader, nil)
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		switch tokenStr {
		case "", "null", "undefined":
			response.Fail(c, http.StatusUnauthorized, MsgNoToken, nil)
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, MsgInvalidToken, nil)
			return
		}
		id, err := uuid.Parse(claims.ID)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, MsgInvalidToken, nil)
			return
		}

		u, err := users.FindUserByID(c.Request.Context(), id)
		if err != nil {
			logger.Error("FindUserByID() error", zap.Error(err), zap.Stringer("user_uuid", id))
			response.Fail(c, http.StatusInternalServerError, MsgInternalServer, nil)
			return
		}
		if u == nil {
			response.Fail(c, http.StatusUnauthorized, MsgUserNotExists, nil)
			return
		}

		c.Set(CtxCaller, Caller{ID: u.UUID, Username: u.Username, Email: u.Email})

		c.Next()
	}
}

// CallerFrom returns the identity set by AuthMiddleware.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(CtxCaller)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}
