// Package middleware provides HTTP middleware components.
//
// The security pipeline applied to state-changing public routes is, in order:
// rate limit, CSRF double-submit check, body decoding and validation,
// malicious-content scan, then the business handler. Every rejection is
// logged through securelog, counted in Prometheus and recorded in the audit
// trail.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/metrics"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/ratelimit"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/securelog"
)

// SecurityRecorder persists gateway rejections. Record must not block.
type SecurityRecorder interface {
	Record(event *models.SecurityEvent) bool
}

// GatewayDeps groups the collaborators of the security pipeline. Every field
// is optional: a nil Limiter skips rate limiting, a nil Tokens skips the CSRF
// check, nil Metrics and Recorder record nothing.
type GatewayDeps struct {
	Limiter  *ratelimit.Limiter
	Tokens   *auth.TokenService
	Identity *IdentityResolver
	Metrics  *metrics.Metrics
	Recorder SecurityRecorder
	Logger   *securelog.Logger

	// Class is the rate limit class used by Protect, form-submission by default.
	Class string
}

func (d GatewayDeps) logger() *securelog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return securelog.L()
}

func (d GatewayDeps) class() string {
	if d.Class != "" {
		return d.Class
	}
	return constants.RouteClassFormSubmission
}

// identity returns the request identity stored by the identity middleware,
// resolving it on the spot when the middleware did not run.
func (d GatewayDeps) identity(r *http.Request) Identity {
	if identity, ok := GetIdentity(r); ok {
		return identity
	}
	if d.Identity != nil {
		return d.Identity.Resolve(r)
	}
	// Without a resolver the raw identity doubles as its hash
	raw := constants.IdentityPrefixIP + (&IdentityResolver{}).ClientIP(r)
	return Identity{Raw: raw, Hash: raw}
}

func logContext(r *http.Request) securelog.Context {
	requestID, _ := auth.GetRequestID(r)
	userID, _ := auth.GetUserID(r)
	return securelog.Context{
		RequestID: requestID,
		UserID:    userID,
		Route:     r.URL.Path,
		Method:    r.Method,
	}
}

// reject logs, counts and records a rejection, then writes the response.
func (d GatewayDeps) reject(w http.ResponseWriter, r *http.Request, identity Identity, rejectionType string, detail map[string]any, write func(http.ResponseWriter)) {
	data := make(map[string]any, len(detail)+1)
	for k, v := range detail {
		data[k] = v
	}
	data["rejection"] = rejectionType

	d.logger().Warn("Request rejected", data, logContext(r))
	d.Metrics.RecordRejection(rejectionType)
	if d.Recorder != nil {
		d.Recorder.Record(models.NewSecurityEvent(rejectionType, r.URL.Path, r.Method, identity.Hash, detail))
	}

	write(w)
}

// setRateLimitHeaders exposes the budget of the current window.
func setRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(decision.Limit))
	w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(decision.Remaining))
	if !decision.ResetAt.IsZero() {
		w.Header().Set(constants.HeaderXRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
}

// checkRateLimit counts the request and reports whether it may continue.
func (d GatewayDeps) checkRateLimit(w http.ResponseWriter, r *http.Request, identity Identity, class string) bool {
	if d.Limiter == nil {
		return true
	}

	decision, err := d.Limiter.Check(r.Context(), identity.Hash, class)
	if err != nil {
		d.internalError(w, r, identity, err, nil)
		return false
	}

	effectiveClass, _ := d.Limiter.Rule(class)
	d.Metrics.RecordRateLimitDecision(effectiveClass, decision.Allowed)
	setRateLimitHeaders(w, decision)

	if decision.Allowed {
		return true
	}

	d.reject(w, r, identity, constants.EventRateLimited, map[string]any{
		"class":               effectiveClass,
		"retry_after_seconds": decision.RetryAfterSeconds(),
	}, func(w http.ResponseWriter) {
		utils.RateLimited(w, decision.RetryAfter)
	})
	return false
}

// checkCSRF validates the double-submitted token on state-changing requests.
func (d GatewayDeps) checkCSRF(w http.ResponseWriter, r *http.Request, identity Identity) bool {
	if d.Tokens == nil || !d.Tokens.ShouldProtect(r) {
		return true
	}
	if d.Tokens.Validate(r) {
		return true
	}

	d.reject(w, r, identity, constants.EventCSRFFailed, nil, utils.CSRFFailed)
	return false
}

// internalError logs err with an optional stack, then answers with the
// opaque internal_error response.
func (d GatewayDeps) internalError(w http.ResponseWriter, r *http.Request, identity Identity, err error, stack []byte) {
	data := map[string]any{}
	if len(stack) > 0 {
		data["stack"] = securelog.SanitizeString(string(stack))
	}
	d.logger().Error("Request failed", err, data, logContext(r))

	d.Metrics.RecordRejection(constants.EventInternalError)
	if d.Recorder != nil {
		d.Recorder.Record(models.NewSecurityEvent(constants.EventInternalError, r.URL.Path, r.Method, identity.Hash, nil))
	}

	utils.Error(w, constants.StatusInternalServerError, constants.TypeInternalError, constants.MsgInternalServerError, nil)
}

// RateLimit limits requests of the given route class per identity.
func (d GatewayDeps) RateLimit(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d.checkRateLimit(w, r, d.identity(r), class) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// CSRF rejects state-changing requests without a matching token pair.
func (d GatewayDeps) CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d.checkCSRF(w, r, d.identity(r)) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RateLimit is a middleware that limits requests of class per identity.
// Denied requests get a 429 rate_limited response with Retry-After.
func RateLimit(limiter *ratelimit.Limiter, class string) func(http.Handler) http.Handler {
	return GatewayDeps{Limiter: limiter}.RateLimit(class)
}

// CSRF is a middleware that protects against Cross-Site Request Forgery attacks
func CSRF(svc *auth.TokenService) func(http.Handler) http.Handler {
	return GatewayDeps{Tokens: svc}.CSRF()
}

// SecurityHeaders adds security-related HTTP headers to responses.
// HSTS is only sent in production, where TLS is terminated in front of the API.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			w.Header().Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			w.Header().Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			w.Header().Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)
			w.Header().Set(constants.HeaderPermissionsPolicy, constants.PermissionsPolicyNone)
			if production {
				w.Header().Set(constants.HeaderStrictTransportSecurity, constants.HSTSMaxAge)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsAllowedHeaders lists the request headers browsers may send cross-origin.
var corsAllowedHeaders = strings.Join([]string{
	"Accept",
	constants.HeaderAuthorization,
	constants.HeaderContentType,
	constants.HeaderXCSRFToken,
	constants.HeaderXRequestID,
}, ", ")

// corsExposedHeaders lists the response headers readable by browser code.
var corsExposedHeaders = strings.Join([]string{
	constants.HeaderRetryAfter,
	constants.HeaderXRateLimitLimit,
	constants.HeaderXRateLimitRemaining,
	constants.HeaderXRateLimitReset,
	constants.HeaderXRequestID,
}, ", ")

// CORS answers preflight requests and sets the CORS headers for allowed
// origins. Requests from other origins pass through without CORS headers, so
// browsers block the response.
func CORS(cfg config.CORSSettings) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, ok := allowed[origin]
			if origin == "" || !(ok || allowAll) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)
			// Credentials are never combined with a wildcard configuration
			if cfg.AllowCredentials && !allowAll {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "300")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
