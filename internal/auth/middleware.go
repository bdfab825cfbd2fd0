// Package auth provides authentication, authorization and CSRF protection
// for the training-center API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// Context keys for storing authenticated user information and request metadata.
const (
	// UserIDContextKey is the context key for storing the authenticated user ID.
	UserIDContextKey ContextKey = constants.UserIDContextKey

	// UsernameContextKey is the context key for storing the authenticated username.
	UsernameContextKey ContextKey = constants.UsernameContextKey

	// RoleContextKey is the context key for storing the authenticated user's role.
	RoleContextKey ContextKey = constants.RoleContextKey

	// RequestIDContextKey is the context key for storing the unique request ID.
	RequestIDContextKey ContextKey = constants.RequestIDContextKey
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the caller if valid.
	Authenticate(r *http.Request) (*Principal, error)
}

// JWTAuthProvider implements JWT-based authentication.
// It extracts and validates JWT tokens from requests to authenticate users.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{
		jwtService: jwtService,
	}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
// It extracts the JWT token from the Authorization header or a cookie,
// validates it, and returns the authenticated principal.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*Principal, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		// Check for token in cookie as fallback
		cookie, err := r.Cookie(constants.AuthTokenCookie)
		if err != nil {
			return nil, utils.ErrUnauthorized
		}
		authHeader = constants.BearerTokenPrefix + cookie.Value
	}

	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)

	claims, err := p.jwtService.ValidateToken(token, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// ensureRequestID returns the request ID from the header, generating one when absent.
func ensureRequestID(r *http.Request) string {
	if requestID, ok := GetRequestID(r); ok {
		return requestID
	}
	requestID := r.Header.Get(constants.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
		r.Header.Set(constants.HeaderXRequestID, requestID)
	}
	return requestID
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, UserIDContextKey, p.UserID)
	ctx = context.WithValue(ctx, UsernameContextKey, p.Username)
	ctx = context.WithValue(ctx, RoleContextKey, p.Role)
	return ctx
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provider and only lets the request through if one succeeds.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := ensureRequestID(r)
		ctx := WithRequestID(r.Context(), requestID)

		var lastErr error = utils.ErrUnauthorized
		for _, provider := range providers {
			principal, err := provider.Authenticate(r)
			if err == nil {
				ctx = WithPrincipal(ctx, principal)

				log.Debug().
					Str("user_id", principal.UserID).
					Str("role", principal.Role).
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("User authenticated")

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			lastErr = err
		}

		log.Info().
			Err(lastErr).
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
		} else {
			utils.Unauthorized(w, constants.MsgAuthRequired)
		}
	})
}

// RequireAuth is a middleware that requires authentication.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// OptionalAuth attempts authentication but continues even if it fails.
// Public routes use it so authenticated callers are rate limited by user ID.
func OptionalAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := ensureRequestID(r)
			ctx := WithRequestID(r.Context(), requestID)

			for _, provider := range providers {
				principal, err := provider.Authenticate(r)
				if err == nil {
					ctx = WithPrincipal(ctx, principal)
					break
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in roles.
// It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r) {
				utils.Unauthorized(w, constants.MsgAuthRequired)
				return
			}

			role, _ := GetRole(r)
			if _, ok := allowed[role]; !ok {
				userID, _ := GetUserID(r)
				log.Warn().
					Str("user_id", userID).
					Str("role", role).
					Str("path", r.URL.Path).
					Msg("Access denied for role")
				utils.Forbidden(w, constants.MsgAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

// GetUsername extracts the username from the request context.
func GetUsername(r *http.Request) (string, bool) {
	username, ok := r.Context().Value(UsernameContextKey).(string)
	return username, ok
}

// GetRole extracts the role from the request context.
func GetRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(RoleContextKey).(string)
	return role, ok
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(RequestIDContextKey).(string)
	return requestID, ok && requestID != ""
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	_, ok := GetUserID(r)
	return ok
}
