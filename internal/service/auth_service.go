package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"perkgate-hub/internal/repository"
	jwtutil "perkgate-hub/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const accessTokenExpiry = 12 * time.Hour

type AuthService struct {
	operatorRepo repository.OperatorRepository
	jwtSecret    []byte
	logger       *zap.Logger
}

func NewAuthService(operatorRepo repository.OperatorRepository, jwtSecret []byte, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		operatorRepo: operatorRepo,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

// Login verifies an operator's credentials and mints a tenant-pinned
// access token. Missing operators and wrong passwords are the same error
// to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	operator, err := s.operatorRepo.FindByEmail(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwtutil.NewClaims(operator.ID.String(), operator.TenantID.String(), accessTokenExpiry)
	return jwtutil.GenerateAccessToken(claims, s.jwtSecret)
}

func (s *AuthService) Verify(tokenStr string) (*jwtutil.Claims, error) {
	return jwtutil.ParseAccessToken(tokenStr, s.jwtSecret)
}
