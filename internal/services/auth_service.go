package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"lapor-chat/internal/auth"
	"lapor-chat/internal/config"
	"lapor-chat/internal/models"
	"lapor-chat/internal/storage"
)

var (
	ErrMissingCredentials = errors.New("Harap isi email dan kata sandi")
	ErrPasswordTooShort   = fmt.Errorf("kata sandi minimal %d karakter", auth.MinPasswordLength)
	ErrUserAlreadyExists  = errors.New("email sudah terdaftar")
	ErrInvalidCredentials = errors.New("email atau kata sandi salah")
	ErrUserNotFound       = storage.ErrUserNotFound
)

// Session is an established identity plus the bearer token proving it.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService creates users and the sessions they chat under.
type AuthService interface {
	SignInAnonymously(ctx context.Context) (*Session, error)
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type authService struct {
	userRepo storage.UserRepository
	cfg      config.AuthConfig
}

// NewAuthService creates an AuthService.
func NewAuthService(userRepo storage.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) SignInAnonymously(ctx context.Context) (*Session, error) {
	user := &models.User{Anonymous: true, Role: models.RoleUser}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}
	return s.issue(user)
}

func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) < auth.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        lo.ToPtr(email),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*Session, error) {
	token, claims, err := auth.GenerateToken(auth.Identity{
		UserID:    user.ID,
		Role:      user.Role,
		Anonymous: user.Anonymous,
	}, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
