package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/auth"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// AuthService defines authentication operations for miniapp users and admins
type AuthService interface {
	LoginWithCode(ctx context.Context, code string) (*dto.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	AdminLogin(ctx context.Context, username, password string) (*dto.AdminLoginResponse, error)
}

type authService struct {
	identity IdentityProvider
	tokens   RefreshTokenStore
	admins   AdminStore
	jwt      *auth.JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(identity IdentityProvider, tokens RefreshTokenStore, admins AdminStore, jwtService *auth.JWTService) AuthService {
	return &authService{
		identity: identity,
		tokens:   tokens,
		admins:   admins,
		jwt:      jwtService,
	}
}

// LoginWithCode exchanges a miniapp login code for an access/refresh
// token pair. Logging in revokes any previously issued refresh token.
func (s *authService) LoginWithCode(ctx context.Context, code string) (*dto.TokenResponse, error) {
	if code == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "login code is required")
	}

	openid, err := s.identity.Code2Session(ctx, code)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokenPair(ctx, openid)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("openid", openid).Msg("User logged in")
	return pair, nil
}

// RefreshTokens rotates a refresh token: the presented token must match
// the single stored grant for its openid, and a new pair replaces it.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	valid, err := s.tokens.Valid(ctx, claims.OpenID, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !valid {
		return nil, apperrors.ErrTokenRevoked
	}

	return s.issueTokenPair(ctx, claims.OpenID)
}

// AdminLogin authenticates an administrator by username and password.
func (s *authService) AdminLogin(ctx context.Context, username, password string) (*dto.AdminLoginResponse, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAdminToken(admin.ID, admin.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin token: %w", err)
	}

	logger.Info().Str("username", username).Msg("Admin logged in")

	return &dto.AdminLoginResponse{
		AdminID:  admin.ID,
		Username: admin.Username,
		Token:    token,
	}, nil
}

func (s *authService) issueTokenPair(ctx context.Context, openid string) (*dto.TokenResponse, error) {
	accessToken, err := s.jwt.GenerateAccessToken(openid)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, jti, expiresAt, err := s.jwt.GenerateRefreshToken(openid)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokens.Replace(ctx, openid, jti, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.jwt.AccessTokenTTL().Seconds()),
		RefreshExpiresIn: int64(s.jwt.RefreshTokenTTL().Seconds()),
	}, nil
}
