package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"gallery-api/internal/apperr"
	"gallery-api/internal/application/ports"
	"gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/jwt"
	"gallery-api/internal/infrastructure/mq"
)

const bcryptCost = 10

var (
	ErrInvalidCredentials = apperr.Auth("incorrect email or password")
	ErrEmailInUse         = apperr.Conflict("email already in use")

	// compared against on unknown emails so both login failures cost one bcrypt round
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gallery-dummy-password"), bcryptCost)
)

type AuthService struct {
	jwtService     *jwt.Service
	userRepository user.Repository
	mq             ports.EventPublisher
	mCounter       *prometheus.CounterVec
}

func NewAuthService(
	jwtService *jwt.Service,
	userRepository user.Repository,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.Auth {
	return &AuthService{
		jwtService:     jwtService,
		userRepository: userRepository,
		mq:             mq,
		mCounter:       mCounter,
	}
}

func (as *AuthService) Signup(ctx context.Context, username, email, password string) (*user.User, error) {
	username = strings.TrimSpace(username)
	email = user.NormalizeEmail(email)

	missing := map[string]string{}
	if username == "" {
		missing["username"] = "missing"
	}
	if email == "" {
		missing["email"] = "missing"
	}
	if strings.TrimSpace(password) == "" {
		missing["password"] = "missing"
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("a required field is missing", map[string]any{"fields": missing})
	}

	if !user.ValidUsername(username) {
		return nil, apperr.Validation(
			fmt.Sprintf("username must be %d-%d characters", user.MinUsernameLen, user.MaxUsernameLen),
			map[string]string{"username": "invalid length"},
		)
	}
	if !user.IsEmail(email) {
		return nil, apperr.Validation("please provide a valid email", map[string]string{"email": "invalid format"})
	}

	existing, err := as.userRepository.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("failed to check email", err)
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	if !user.StrongPassword(password) {
		return nil, apperr.Validation(
			fmt.Sprintf(
				"password must be %d-%d bytes and contain an uppercase letter, a lowercase letter, a digit and a symbol",
				user.MinPasswordLen, user.MaxPasswordBytes,
			),
			map[string]string{"password": "too weak"},
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	u, err := as.userRepository.CreateUser(ctx, user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailInUse
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	as.mq.Publish(mq.NewEvent(mq.ActionUserCreated, u.UUID, mq.UserPayload{
		UUID:     u.UUID,
		Username: u.Username,
		Email:    u.Email,
	}))
	as.mCounter.WithLabelValues("user_created_total").Inc()

	return u, nil
}

func (as *AuthService) Login(ctx context.Context, email, password string) (*user.User, error) {
	email = user.NormalizeEmail(email)

	missing := map[string]string{}
	if email == "" {
		missing["email"] = "missing"
	}
	if password == "" {
		missing["password"] = "missing"
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("a required field is missing", map[string]any{"fields": missing})
	}
	if !user.IsEmail(email) {
		return nil, apperr.Validation("please provide a valid email", map[string]string{"email": "invalid format"})
	}

	u, err := as.userRepository.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		as.mCounter.WithLabelValues("login_failed_total").Inc()
		return nil, ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		as.mCounter.WithLabelValues("login_failed_total").Inc()
		return nil, ErrInvalidCredentials
	}

	as.mCounter.WithLabelValues("login_total").Inc()

	return u, nil
}

func (as *AuthService) CreateToken(userID uuid.UUID) (string, error) {
	token, err := as.jwtService.GenerateJWT(userID.String())
	if err != nil {
		return "", apperr.Internal("failed to generate token", err)
	}
	return token, nil
}
