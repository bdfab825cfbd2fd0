package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/ratelimit"
)

const testCSRFToken = "AbCdEfGhIjKlMnOpQrStUvWxYz012345"

// recordingRecorder keeps every recorded security event in memory
type recordingRecorder struct {
	mu     sync.Mutex
	events []*models.SecurityEvent
}

func (r *recordingRecorder) Record(event *models.SecurityEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return true
}

func (r *recordingRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *recordingRecorder) Last() *models.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func newTestLimiter(t *testing.T, clock clockwork.Clock, rules map[string]ratelimit.Rule) *ratelimit.Limiter {
	t.Helper()
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(clock, 0), ratelimit.Options{Rules: rules})
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(config.CSRFSettings{
		CookieName:  constants.CSRFTokenCookie,
		HeaderName:  constants.HeaderXCSRFToken,
		TokenLength: constants.DefaultCSRFTokenLength,
		MaxAge:      time.Hour,
		ExemptPaths: constants.CSRFExemptPaths,
	})
	require.NoError(t, err)
	return svc
}

// newRequest builds a request from a fixed client address, carrying the CSRF
// token pair when token is not empty.
func newRequest(method, path, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:52311"
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	if token != "" {
		req.Header.Set(constants.HeaderXCSRFToken, token)
		req.AddCookie(&http.Cookie{Name: constants.CSRFTokenCookie, Value: token})
	}
	return req
}

// okHandler records whether it was reached
type okHandler struct {
	called int
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called++
	w.WriteHeader(http.StatusOK)
}
