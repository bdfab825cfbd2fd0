package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

const contactBody = `{"name":"Marie Dupont","email":"marie.dupont@example.fr","subject":"Formation Excel","message":"Please call me back on Monday afternoon.","consent":true}`

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, body io.Reader) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func bearer(t *testing.T, s *Server, role string) string {
	t.Helper()
	token, _, err := s.Security.JWT.GenerateAccessToken("42", "camille", role)
	require.NoError(t, err)
	return constants.BearerTokenPrefix + token
}

// fetchCSRFToken runs the token endpoint and returns the token with its cookie.
func fetchCSRFToken(t *testing.T, s *Server) (string, *http.Cookie) {
	t.Helper()
	rr := serve(s, httptest.NewRequest(http.MethodGet, constants.CSRFTokenPath, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body utils.CSRFTokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, body.CSRFToken, cookies[0].Value)
	return body.CSRFToken, cookies[0]
}

func TestRoutes_Health(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		// Arrange
		s, mock, _ := newTestServer(t, testConfig())
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		// Act
		rr := serve(s, httptest.NewRequest(http.MethodGet, constants.HealthPath, nil))

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(constants.HeaderXRequestID))
		assert.Equal(t, constants.PermissionsPolicyNone, rr.Header().Get(constants.HeaderPermissionsPolicy))
		assert.Equal(t, "100", rr.Header().Get(constants.HeaderXRateLimitLimit))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version", func(t *testing.T) {
		// Arrange
		s, _, _ := newTestServer(t, testConfig())

		// Act
		rr := serve(s, httptest.NewRequest(http.MethodGet, constants.VersionPath, nil))

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeResponse(t, rr.Body)
		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "1.2.3", data["version"])
	})
}

func TestRoutes_ReadRateLimit(t *testing.T) {
	// Arrange
	cfg := testConfig()
	cfg.Security.RateLimit.Rules[constants.RouteClassRead] = config.RateLimitRule{MaxAttempts: 2, Window: time.Minute}
	s, _, clock := newTestServer(t, cfg)

	// Act
	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(s, httptest.NewRequest(http.MethodGet, constants.VersionPath, nil))
		codes = append(codes, last.Code)
	}
	clock.Advance(time.Minute)
	afterReset := serve(s, httptest.NewRequest(http.MethodGet, constants.VersionPath, nil))

	// Assert
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get(constants.HeaderRetryAfter))
	assert.Equal(t, http.StatusOK, afterReset.Code)
}

func TestRoutes_ContactSubmission(t *testing.T) {
	t.Run("token round trip stores the form", func(t *testing.T) {
		// Arrange
		s, mock, _ := newTestServer(t, testConfig())
		token, cookie := fetchCSRFToken(t, s)
		mock.ExpectExec("INSERT INTO form_submissions").WillReturnResult(sqlmock.NewResult(0, 1))

		req := httptest.NewRequest(http.MethodPost, constants.ContactPath, strings.NewReader(contactBody))
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
		req.Header.Set(constants.HeaderXCSRFToken, token)
		req.AddCookie(cookie)

		// Act
		rr := serve(s, req)

		// Assert
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		resp := decodeResponse(t, rr.Body)
		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, data["reference"])
		assert.Equal(t, "4", rr.Header().Get(constants.HeaderXRateLimitRemaining))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing token", func(t *testing.T) {
		// Arrange
		s, mock, _ := newTestServer(t, testConfig())
		req := httptest.NewRequest(http.MethodPost, constants.ContactPath, strings.NewReader(contactBody))
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

		// Act
		rr := serve(s, req)

		// Assert
		require.Equal(t, http.StatusForbidden, rr.Code)
		resp := decodeResponse(t, rr.Body)
		require.NotNil(t, resp.Error)
		assert.Equal(t, constants.TypeCSRFValidationFailed, resp.Error.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("forged token", func(t *testing.T) {
		// Arrange
		s, _, _ := newTestServer(t, testConfig())
		_, cookie := fetchCSRFToken(t, s)
		req := httptest.NewRequest(http.MethodPost, constants.ComplaintsPath, strings.NewReader(contactBody))
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
		req.Header.Set(constants.HeaderXCSRFToken, strings.Repeat("a", constants.DefaultCSRFTokenLength))
		req.AddCookie(cookie)

		// Act
		rr := serve(s, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRoutes_Admin(t *testing.T) {
	testCases := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{name: "anonymous", expectedStatus: http.StatusUnauthorized},
		{name: "non-admin", role: "user", expectedStatus: http.StatusForbidden},
		{name: "admin", role: constants.RoleAdmin, expectedStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			s, _, _ := newTestServer(t, testConfig())
			req := httptest.NewRequest(http.MethodGet, constants.AdminRoutesPath, nil)
			if tc.role != "" {
				req.Header.Set(constants.HeaderAuthorization, bearer(t, s, tc.role))
			}

			// Act
			rr := serve(s, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}

	t.Run("route listing", func(t *testing.T) {
		// Arrange
		s, _, _ := newTestServer(t, testConfig())
		req := httptest.NewRequest(http.MethodGet, constants.AdminRoutesPath, nil)
		req.Header.Set(constants.HeaderAuthorization, bearer(t, s, constants.RoleAdmin))

		// Act
		rr := serve(s, req)

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Data []RouteInfo `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Contains(t, resp.Data, RouteInfo{Method: http.MethodPost, Pattern: constants.ContactPath})
		assert.Contains(t, resp.Data, RouteInfo{Method: http.MethodGet, Pattern: constants.AdminSecurityEventsPath})
		assert.Contains(t, resp.Data, RouteInfo{Method: http.MethodGet, Pattern: constants.AdminSecuritySummaryPath})
		assert.Contains(t, resp.Data, RouteInfo{Method: http.MethodGet, Pattern: constants.DefaultMetricsPath})
	})
}

func TestRoutes_Metrics(t *testing.T) {
	// Arrange
	s, _, _ := newTestServer(t, testConfig())
	fetchCSRFToken(t, s)

	// Act
	rr := serve(s, httptest.NewRequest(http.MethodGet, constants.DefaultMetricsPath, nil))

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "csrf_tokens_issued_total 1")
	assert.Contains(t, rr.Body.String(), "http_request_duration_seconds")
}

func TestRoutes_NotFound(t *testing.T) {
	// Arrange
	s, _, _ := newTestServer(t, testConfig())

	// Act
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeResponse(t, rr.Body)
	assert.False(t, resp.Success)
}
