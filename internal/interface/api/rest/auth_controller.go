package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-api/internal/application/ports"
	"gallery-api/internal/interface/api/rest/dto/auth"
	"gallery-api/internal/interface/api/rest/middleware"
	"gallery-api/internal/interface/api/rest/response"
	"gallery-api/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger      *zap.Logger
	userService ports.UserService
	authService ports.Auth
}

// NewAuthController mounts the auth routes. limiters run in front of signup
// and login only.
func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	userService ports.UserService,
	authService ports.Auth,
	authMW gin.HandlerFunc,
	limiters ...gin.HandlerFunc,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		userService: userService,
		authService: authService,
	}

	r.POST(RouteSignup, chain(limiters, ac.SignupHandler)...)
	r.POST(RouteLogin, chain(limiters, ac.LoginHandler)...)
	r.DELETE(RouteDeleteUser, authMW, ac.DeleteAccountHandler)

	return ac
}

func (ac *AuthController) SignupHandler(c *gin.Context) {
	var req auth.SignupRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	u, err := ac.authService.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	token, err := ac.authService.CreateToken(u.UUID)
	if err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	response.Success(c, http.StatusCreated, auth.ToSession(*u, token))
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req auth.LoginRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	u, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	token, err := ac.authService.CreateToken(u.UUID)
	if err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	response.Success(c, http.StatusOK, auth.ToSession(*u, token))
}

func (ac *AuthController) DeleteAccountHandler(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, middleware.MsgNoAuthHeader, nil)
		return
	}

	res, err := ac.userService.DeleteAccount(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, ac.logger, err)
		return
	}

	response.Success(c, http.StatusOK, auth.ToDeleted(*res))
}
