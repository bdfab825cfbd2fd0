package handlers

import (
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// SecurityHandler manages the admin audit endpoints.
type SecurityHandler struct {
	events SecurityEventServiceInterface
	clock  clockwork.Clock
}

// NewSecurityHandler creates a new SecurityHandler with the specified services.
//
// Parameters:
//   - events: Read access to the audit trail
//   - clock: Time source for relative "since" filters; nil selects the real clock
//
// Returns:
//   - A properly initialized SecurityHandler
func NewSecurityHandler(events SecurityEventServiceInterface, clock clockwork.Clock) *SecurityHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SecurityHandler{
		events: events,
		clock:  clock,
	}
}

// ListEvents returns recorded security events, newest first.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /api/admin/security-events
//
// Query Parameters:
//   - type: One of the security event types
//   - since: RFC 3339 time or duration such as "24h"
//   - limit, offset: Page selection
//
// Requires:
//   - Authentication: Admin role
//
// Responses:
//   - 200 OK: Paginated list of events
//   - 400 Bad Request: Invalid filter
//   - 401 Unauthorized: User not authenticated
//   - 403 Forbidden: User not authorized (not admin)
//   - 500 Internal Server Error: Server-side error
func (h *SecurityHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get(constants.QueryParamType)
	if eventType != "" && !utils.ContainsString(constants.SecurityEventTypes, eventType) {
		utils.ErrorFromAppError(w, utils.NewValidationError(constants.QueryParamType, "Unknown security event type"))
		return
	}

	since, err := utils.ParseSinceParam(r, constants.QueryParamSince, h.clock.Now())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	params := utils.GetPaginationParams(r)
	events, total, err := h.events.List(r.Context(), models.SecurityEventFilter{
		Type:   eventType,
		Since:  since,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.List(w, events, params, total)
}

// Summary returns per-type event counts.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /api/admin/security-events/summary
//
// Requires:
//   - Authentication: Admin role
func (h *SecurityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	since, err := utils.ParseSinceParam(r, constants.QueryParamSince, h.clock.Now())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	summary, err := h.events.Summary(r.Context(), since)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}
