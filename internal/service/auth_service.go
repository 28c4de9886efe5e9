package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAccountInactive indicates the account has been deactivated.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTeacherOnly indicates the operation requires the teacher role.
	ErrTeacherOnly = errors.New("operation requires teacher role")
)

// AuthService handles registration, login and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, principal Principal, payload dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context, tokenID string) error
	Me(ctx context.Context, principal Principal) (dto.UserResponse, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   SessionStore
	validator  *validator.Validate
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, sessions SessionStore, validate *validator.Validate, jwtSecret string, sessionTTL time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		validator:  validate,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, principal Principal, payload dto.RegisterRequest) (dto.UserResponse, error) {
	if !principal.IsTeacher() {
		return dto.UserResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	username := strings.ToLower(strings.TrimSpace(payload.Username))
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return dto.UserResponse{}, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(payload.FullName),
		Role:         payload.Role,
		Class:        strings.TrimSpace(payload.Class),
		Active:       true,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	username := strings.ToLower(strings.TrimSpace(payload.Username))
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if !user.Active {
		return dto.LoginResponse{}, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	tokenID := uuid.NewString()
	expiresAt := s.now().Add(s.sessionTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"jti":  tokenID,
		"exp":  expiresAt.Unix(),
		"iat":  s.now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.sessions.Create(ctx, tokenID, user.ID, s.sessionTTL); err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return ErrSessionNotFound
	}

	return s.sessions.Delete(ctx, tokenID)
}

func (s *authService) Me(ctx context.Context, principal Principal) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}
