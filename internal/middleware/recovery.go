package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/securelog"
)

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					requestID, _ := auth.GetRequestID(r)
					userID, _ := auth.GetUserID(r)
					utils.LogPanic(utils.RequestLogger(requestID, userID, r.Method, r.URL.Path), rec, debug.Stack())

					utils.Error(
						w,
						constants.StatusInternalServerError,
						constants.TypeInternalError,
						constants.MsgInternalServerError,
						nil,
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns every request an ID, taken from X-Request-ID when the
// caller sent one, and echoes it in the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(constants.HeaderXRequestID)
			if requestID == "" || len(requestID) > constants.MaxRequestIDLength {
				requestID = uuid.New().String()
				r.Header.Set(constants.HeaderXRequestID, requestID)
			}

			w.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(auth.WithRequestID(r.Context(), requestID)))
		})
	}
}

// RequestLogger logs one line per request once it has been served. The
// client is identified by its identity hash, never by address.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			requestID, _ := auth.GetRequestID(r)
			identityHash := ""
			if identity, ok := GetIdentity(r); ok {
				identityHash = identity.Hash
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			utils.LogHTTPRequest(requestID, r.Method, r.URL.Path, identityHash, r.UserAgent(), status, time.Since(start))
		})
	}
}

// LogAndContinueOnError logs an error but allows execution to continue
// This is useful for non-critical errors that should be logged but not cause a panic
func LogAndContinueOnError(err error, message string) {
	if err != nil {
		securelog.L().Error(message, err, nil, securelog.Context{})
	}
}
