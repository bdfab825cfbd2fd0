package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// JWT errors
var (
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrMissingSecret        = errors.New("jwt secret is not configured")
)

// CustomClaims represents the claims in a JWT token
type CustomClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService provides JWT token generation and validation functionality.
// Tokens are issued by the back-office login and validated on every request
// to derive the caller identity.
type JWTService struct {
	Config *config.JWTSettings
}

// NewJWTService creates a new JWTService instance
func NewJWTService(config *config.JWTSettings) *JWTService {
	return &JWTService{
		Config: config,
	}
}

// GetConfig returns the JWT settings, falling back to defaults without a secret.
func (s *JWTService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			Expiry: constants.DefaultJWTExpiry,
			Issuer: constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// GenerateAccessToken generates a new JWT access token for a back-office user.
//
// Returns:
//   - The signed token
//   - The token ID (jti)
//   - An error if signing fails
func (s *JWTService) GenerateAccessToken(userID, username, role string) (string, string, error) {
	cfg := s.GetConfig()
	if cfg.Secret == "" {
		return "", "", ErrMissingSecret
	}

	// Generate a unique token ID
	jwtID := uuid.New().String()

	now := time.Now()
	claims := CustomClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: constants.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, jwtID, nil
}

// ValidateToken validates a JWT token and returns its claims if valid
func (s *JWTService) ValidateToken(tokenString string, expectedType string) (*CustomClaims, error) {
	cfg := s.GetConfig()
	if cfg.Secret == "" {
		return nil, utils.NewInvalidTokenError()
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(cfg.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	if !token.Valid {
		return nil, utils.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, utils.NewInvalidTokenError()
	}

	if claims.TokenType != expectedType {
		return nil, utils.NewInvalidTokenError()
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, utils.NewInvalidTokenError()
	}

	if claims.UserID == "" {
		return nil, utils.NewInvalidTokenError()
	}

	return claims, nil
}
