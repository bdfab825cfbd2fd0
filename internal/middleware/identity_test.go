package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/middleware"
)

func newResolver(t *testing.T, trustProxy bool) *middleware.IdentityResolver {
	t.Helper()
	resolver, err := middleware.NewIdentityResolver("test-identity-hash-key", trustProxy)
	require.NoError(t, err)
	return resolver
}

func TestNewIdentityResolver(t *testing.T) {
	t.Run("Empty key", func(t *testing.T) {
		resolver, err := middleware.NewIdentityResolver("", false)

		assert.Nil(t, resolver)
		assert.ErrorIs(t, err, middleware.ErrEmptyIdentityKey)
	})

	t.Run("Oversized key is accepted", func(t *testing.T) {
		resolver, err := middleware.NewIdentityResolver(strings.Repeat("k", 200), false)

		require.NoError(t, err)
		assert.Len(t, resolver.Hash("ip:192.0.2.1"), 64)
	})
}

func TestIdentityResolver_Hash(t *testing.T) {
	// Arrange
	first := newResolver(t, false)
	other, err := middleware.NewIdentityResolver("another-key", false)
	require.NoError(t, err)

	// Act
	h1 := first.Hash("ip:192.0.2.1")
	h2 := first.Hash("ip:192.0.2.1")
	h3 := other.Hash("ip:192.0.2.1")

	// Assert
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "192.0.2.1")
}

func TestIdentityResolver_ClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "Remote address",
			remoteAddr: "192.0.2.10:52311",
			expected:   "192.0.2.10",
		},
		{
			name:       "Proxy headers ignored when proxy is not trusted",
			remoteAddr: "192.0.2.10:52311",
			headers: map[string]string{
				constants.HeaderXForwardedFor: "203.0.113.5",
				constants.HeaderXRealIP:       "203.0.113.6",
			},
			expected: "192.0.2.10",
		},
		{
			name:       "X-Real-IP wins when proxy is trusted",
			trustProxy: true,
			remoteAddr: "10.0.0.2:8080",
			headers: map[string]string{
				constants.HeaderXForwardedFor: "203.0.113.5",
				constants.HeaderXRealIP:       "203.0.113.6",
			},
			expected: "203.0.113.6",
		},
		{
			name:       "Right-most forwarded entry",
			trustProxy: true,
			remoteAddr: "10.0.0.2:8080",
			headers: map[string]string{
				constants.HeaderXForwardedFor: "198.51.100.1, 203.0.113.5",
			},
			expected: "203.0.113.5",
		},
		{
			name:       "Garbage forwarded entries are skipped",
			trustProxy: true,
			remoteAddr: "10.0.0.2:8080",
			headers: map[string]string{
				constants.HeaderXForwardedFor: "198.51.100.1, not-an-ip",
			},
			expected: "198.51.100.1",
		},
		{
			name:       "IPv6 remote address",
			remoteAddr: "[2001:db8::1]:443",
			expected:   "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			resolver := newResolver(t, tt.trustProxy)
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			// Act
			ip := resolver.ClientIP(req)

			// Assert
			assert.Equal(t, tt.expected, ip)
		})
	}
}

func TestIdentityResolver_Resolve(t *testing.T) {
	resolver := newResolver(t, false)

	t.Run("Anonymous caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "192.0.2.10:52311"

		identity := resolver.Resolve(req)

		assert.Equal(t, "ip:192.0.2.10", identity.Raw)
		assert.Equal(t, resolver.Hash("ip:192.0.2.10"), identity.Hash)
		assert.False(t, identity.Authenticated)
	})

	t.Run("Authenticated caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: "42", Role: "user"}))

		identity := resolver.Resolve(req)

		assert.Equal(t, "user:42", identity.Raw)
		assert.Equal(t, resolver.Hash("user:42"), identity.Hash)
		assert.True(t, identity.Authenticated)
	})
}

func TestIdentityResolver_Middleware(t *testing.T) {
	// Arrange
	resolver := newResolver(t, false)
	var got middleware.Identity
	var found bool
	handler := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = middleware.GetIdentity(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "192.0.2.10:52311"

	// Act
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// Assert
	require.True(t, found)
	assert.Equal(t, "ip:192.0.2.10", got.Raw)

	_, ok := middleware.GetIdentity(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
