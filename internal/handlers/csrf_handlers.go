package handlers

import (
	"net/http"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/metrics"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// CSRFHandler issues double-submit CSRF tokens.
type CSRFHandler struct {
	tokens  *auth.TokenService
	metrics *metrics.Metrics
}

// NewCSRFHandler creates a new CSRFHandler. m may be nil.
func NewCSRFHandler(tokens *auth.TokenService, m *metrics.Metrics) *CSRFHandler {
	return &CSRFHandler{
		tokens:  tokens,
		metrics: m,
	}
}

// GetToken issues a fresh token, in the response body and in an HttpOnly
// cookie. The client echoes the body copy in the X-CSRF-Token header of its
// next state-changing request.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /api/csrf-token
//
// Responses:
//   - 200 OK: {"success":true,"csrfToken":"..."} with Set-Cookie
//   - 429 Too Many Requests: Read budget exhausted
//   - 500 Internal Server Error: No secure random source
func (h *CSRFHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	token, cookie, err := h.tokens.IssueToken()
	if err != nil {
		utils.InternalServerError(w, err)
		return
	}

	http.SetCookie(w, cookie)
	h.metrics.CSRFTokenIssued()
	utils.CSRFToken(w, token)
}
