package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/senyabanana/procurement-portal/internal/auth"
	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users  repository.UserRepository
	Tokens *auth.TokenManager
	Logger *logrus.Logger
}

// NewAuthService создаёт новый экземпляр AuthService.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:  users,
		Tokens: tokens,
		Logger: logger,
	}
}

// Register создаёт учётную запись и выпускает токен.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "username and password are required")
	}
	if req.Role != models.RoleCity && req.Role != models.RoleCompany {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "role must be CITY or COMPANY")
	}
	if req.Role == models.RoleCompany && req.Organization == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "company accounts require an organization name")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Organization: req.Organization,
	}

	err = s.Users.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "username already exists")
	}
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login проверяет учётные данные и выпускает токен.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "username and password are required")
	}

	user, err := s.Users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "invalid credentials")
	}

	return s.issueToken(*user)
}

func (s *AuthService) issueToken(user models.User) (*models.AuthResponse, error) {
	token, err := s.Tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
