package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/contentscan"
)

// bodyField is the validation detail key used for errors about the body as a whole.
const bodyField = "body"

// Protect wraps a business handler in the full security pipeline: rate
// limit, CSRF, JSON decoding and validation into T, content scan. handle
// only runs for requests that passed every step. A panic or a server-side
// error from handle produces an opaque 500.
func Protect[T any](deps GatewayDeps, handle func(w http.ResponseWriter, r *http.Request, payload *T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := deps.identity(r)
		r = r.WithContext(WithIdentity(r.Context(), identity))

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				deps.internalError(w, r, identity, fmt.Errorf("panic: %v", rec), debug.Stack())
			}
		}()

		if !deps.checkRateLimit(w, r, identity, deps.class()) {
			return
		}
		if !deps.checkCSRF(w, r, identity) {
			return
		}

		payload := new(T)
		if err := utils.DecodeAndValidate(w, r, payload); err != nil {
			deps.rejectInvalid(w, r, identity, err)
			return
		}

		if findings := contentscan.Scan(payload); len(findings) > 0 {
			// Only the finding types are kept, never the offending content
			deps.reject(w, r, identity, constants.EventSecurityViolation, map[string]any{
				"findings": contentscan.Types(findings),
			}, utils.SecurityViolation)
			return
		}

		deps.logger().Debug("Request passed security pipeline", nil, logContext(r))

		if err := handle(w, r, payload); err != nil {
			var appErr *utils.AppError
			if errors.As(err, &appErr) && appErr.StatusCode < constants.StatusInternalServerError {
				utils.ErrorFromAppError(w, appErr)
				return
			}
			deps.internalError(w, r, identity, err, nil)
		}
	}
}

// rejectInvalid answers a decoding or validation failure with a 400
// validation_error carrying per-field details.
func (d GatewayDeps) rejectInvalid(w http.ResponseWriter, r *http.Request, identity Identity, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		d.internalError(w, r, identity, err, nil)
		return
	}
	if appErr.StatusCode >= constants.StatusInternalServerError {
		d.internalError(w, r, identity, appErr, nil)
		return
	}

	details := validationDetails(appErr)
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	d.reject(w, r, identity, constants.EventValidationFailed, map[string]any{
		"fields": fields,
	}, func(w http.ResponseWriter) {
		utils.ValidationError(w, details)
	})
}

func validationDetails(appErr *utils.AppError) map[string]string {
	if len(appErr.Details) > 0 {
		return appErr.Details
	}
	if appErr.Field != "" {
		return map[string]string{appErr.Field: appErr.Message}
	}
	return map[string]string{bodyField: appErr.Message}
}
