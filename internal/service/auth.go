package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

const minPasswordLen = 6

type AuthService struct {
	users  repo.UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAuthService(users repo.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case name == "":
		return model.AuthResponse{}, invalid("name is required")
	case !strings.Contains(email, "@"):
		return model.AuthResponse{}, invalid("valid email is required")
	case len(req.Password) < minPasswordLen:
		return model.AuthResponse{}, invalid("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{Name: name, Email: email, PasswordHash: string(hash)})
	if errors.Is(err, repo.ErrorConflict) {
		return model.AuthResponse{}, ErrEmailTaken
	}
	if err != nil {
		return model.AuthResponse{}, err
	}
	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repo.ErrorNotFound) {
		return model.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.AuthResponse{}, ErrInvalidCredentials
	}
	return s.respond(user)
}

// Me возвращает владельца токена. Удаленный пользователь - ErrUnauthorized.
func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.User{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	return user, err
}

// ParseToken проверяет HS256 токен и возвращает id пользователя (sub)
func (s *AuthService) ParseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) respond(u model.User) (model.AuthResponse, error) {
	token, err := s.issueToken(u.ID)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return model.AuthResponse{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
