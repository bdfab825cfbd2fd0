package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/base62"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/securelog"
)

// ErrInsecureRandomSource is returned when the cryptographic random source
// cannot be read. The service refuses to start rather than issue guessable tokens.
var ErrInsecureRandomSource = errors.New("cryptographic random source unavailable")

// CSRF validation failure reasons. They are logged, never returned to the client.
const (
	reasonMissingHeader = "missing_header"
	reasonMissingCookie = "missing_cookie"
	reasonBadLength     = "length_mismatch"
	reasonMismatch      = "token_mismatch"
)

// TokenService issues and validates double-submit CSRF tokens.
//
// A token is a random string sent both as an HttpOnly cookie and, by the
// client, in a request header. A request is accepted when both copies are
// present and equal. Tokens carry no server-side state and remain valid for
// the cookie lifetime.
type TokenService struct {
	cfg    config.CSRFSettings
	random io.Reader
	// log overrides the global logger when set
	log *securelog.Logger
}

// NewTokenService creates a token service reading from crypto/rand.
func NewTokenService(cfg config.CSRFSettings) (*TokenService, error) {
	return NewTokenServiceWithReader(cfg, rand.Reader)
}

// NewTokenServiceWithReader creates a token service over an explicit random
// source. The source is probed once; a failing source is fatal.
func NewTokenServiceWithReader(cfg config.CSRFSettings, random io.Reader) (*TokenService, error) {
	if cfg.TokenLength < constants.MinCSRFTokenLength {
		return nil, fmt.Errorf("csrf token length must be at least %d", constants.MinCSRFTokenLength)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = constants.CSRFTokenCookie
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = constants.HeaderXCSRFToken
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = constants.DefaultCSRFMaxAge
	}
	if cfg.SameSite == "" {
		cfg.SameSite = constants.DefaultCSRFSameSite
	}

	if random == nil {
		return nil, ErrInsecureRandomSource
	}
	probe := make([]byte, 32)
	if _, err := io.ReadFull(random, probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsecureRandomSource, err)
	}

	return &TokenService{
		cfg:    cfg,
		random: random,
	}, nil
}

// SetLogger routes validation failures to l instead of the global logger.
func (s *TokenService) SetLogger(l *securelog.Logger) {
	s.log = l
}

// HeaderName returns the request header carrying the client copy of the token.
func (s *TokenService) HeaderName() string {
	return s.cfg.HeaderName
}

// IssueToken generates a fresh token and the cookie that carries it.
func (s *TokenService) IssueToken() (string, *http.Cookie, error) {
	token, err := base62.RandomWithReader(s.cfg.TokenLength, s.random)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInsecureRandomSource, err)
	}
	return token, s.cookie(token), nil
}

// cookie builds the token cookie.
func (s *TokenService) cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: parseSameSite(s.cfg.SameSite),
	}
}

// CookieDirective renders the Set-Cookie header value for token.
func (s *TokenService) CookieDirective(token string) string {
	return s.cookie(token).String()
}

// ShouldProtect reports whether r is state-changing and not exempt.
func (s *TokenService) ShouldProtect(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	return !s.isExempt(r.URL.Path)
}

func (s *TokenService) isExempt(path string) bool {
	for _, exempt := range s.cfg.ExemptPaths {
		if exempt == "" {
			continue
		}
		if path == exempt {
			return true
		}
		if strings.HasSuffix(exempt, "/") && strings.HasPrefix(path, exempt) {
			return true
		}
		if strings.HasPrefix(path, exempt+"/") {
			return true
		}
	}
	return false
}

// Validate reports whether the header and cookie tokens of r match.
// Failures are logged with the route, method and reason only.
func (s *TokenService) Validate(r *http.Request) bool {
	reason := s.check(r)
	if reason == "" {
		return true
	}

	logger := s.log
	if logger == nil {
		logger = securelog.L()
	}
	requestID, _ := GetRequestID(r)
	logger.Warn("CSRF validation failed", map[string]any{
		"reason": reason,
	}, securelog.Context{
		RequestID: requestID,
		Route:     r.URL.Path,
		Method:    r.Method,
	})
	return false
}

// check returns the failure reason, or "" when the tokens match.
func (s *TokenService) check(r *http.Request) string {
	headerToken := r.Header.Get(s.cfg.HeaderName)
	if headerToken == "" {
		return reasonMissingHeader
	}

	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return reasonMissingCookie
	}

	if len(headerToken) != s.cfg.TokenLength || len(cookie.Value) != s.cfg.TokenLength {
		return reasonBadLength
	}

	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) != 1 {
		return reasonMismatch
	}

	return ""
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
