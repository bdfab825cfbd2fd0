// Package utils provides utility functions and helpers for the application.
// This file implements the standardized API response envelope shared by every
// endpoint and every rejection emitted by the security gateway.
//
// The response system includes:
//   - A standard Response structure for all API responses
//   - Convenience functions for each error type clients branch on
//   - Limit/offset extraction for the admin listings
package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// Response represents a standardized API response.
// All API endpoints return responses in this format for consistency.
type Response struct {
	Success bool        `json:"success"`         // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`  // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"` // Error information (omitted for successful responses)
	Meta    *MetaInfo   `json:"meta,omitempty"`  // Metadata such as pagination information
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Type    string            `json:"type"`              // A stable machine-readable discriminator
	Message string            `json:"message"`           // A human-readable error message
	Details map[string]string `json:"details,omitempty"` // Per-field validation errors
}

// MetaInfo represents list metadata in the response.
type MetaInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// CSRFTokenResponse is the body returned by the token issuance endpoint.
type CSRFTokenResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrfToken"`
}

// PaginationParams contains limit/offset parameters extracted from a request.
type PaginationParams struct {
	Limit  int
	Offset int
}

// JSON sends a JSON response with the given status code and data.
// The success flag is derived from the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// List sends a successful list response with limit/offset metadata.
func List(w http.ResponseWriter, data interface{}, params PaginationParams, total int) {
	SendJSON(w, constants.StatusOK, Response{
		Success: constants.ResponseSuccess,
		Data:    data,
		Meta: &MetaInfo{
			Limit:  params.Limit,
			Offset: params.Offset,
			Total:  total,
		},
	})
}

// Error sends an error response with the given status code and error information.
// This is the primary function for sending error responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - errType: A machine-readable error type
//   - message: A human-readable error message
//   - details: Per-field validation errors, nil otherwise
func Error(w http.ResponseWriter, statusCode int, errType, message string, details map[string]string) {
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Type:    errType,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorFromAppError sends an error response based on an AppError.
// Server-side failures are always rendered with the generic message.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	if err.StatusCode >= constants.StatusInternalServerError && err.StatusCode != constants.StatusServiceUnavailable {
		Error(w, constants.StatusInternalServerError, constants.TypeInternalError, constants.MsgInternalServerError, nil)
		return
	}

	details := err.Details
	if details == nil && err.Field != "" {
		details = map[string]string{
			err.Field: err.Message,
		}
	}

	Error(w, err.StatusCode, err.Type(), err.Message, details)
}

// SendJSON is a helper function to send JSON data with proper headers.
// Marshaling happens before the status line is written so that a marshal
// failure can still produce a well-formed 500.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"type":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// NoStore marks a response as uncacheable.
func NoStore(w http.ResponseWriter) {
	w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
	w.Header().Set(constants.HeaderPragma, constants.PragmaNoCache)
	w.Header().Set(constants.HeaderExpires, constants.ExpiresZero)
}

// CSRFToken sends the token issuance body: {success:true, csrfToken}.
func CSRFToken(w http.ResponseWriter, token string) {
	NoStore(w)
	SendJSON(w, constants.StatusOK, CSRFTokenResponse{
		Success:   constants.ResponseSuccess,
		CSRFToken: token,
	})
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(constants.StatusNoContent)
}

// Unauthorized sends a 401 Unauthorized response with the given message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	Error(w, constants.StatusUnauthorized, constants.TypeUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response with the given message.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	Error(w, constants.StatusForbidden, constants.TypeForbidden, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, constants.StatusNotFound, constants.TypeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, constants.StatusMethodNotAllowed, constants.TypeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}

// InternalServerError sends a 500 Internal Server Error response.
// The error is logged but never exposed to the client.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, constants.StatusInternalServerError, constants.TypeInternalError, constants.MsgInternalServerError, nil)
}

// ValidationError sends a 400 response with per-field validation details.
func ValidationError(w http.ResponseWriter, details map[string]string) {
	Error(w, constants.StatusBadRequest, constants.TypeValidationError, constants.MsgValidationFailed, details)
}

// CSRFFailed sends the 403 csrf_validation_failed response.
func CSRFFailed(w http.ResponseWriter) {
	Error(w, constants.StatusForbidden, constants.TypeCSRFValidationFailed, constants.MsgCSRFValidationFailed, nil)
}

// SecurityViolation sends the 400 security_violation response. The offending
// content is never echoed.
func SecurityViolation(w http.ResponseWriter) {
	Error(w, constants.StatusBadRequest, constants.TypeSecurityViolation, constants.MsgSecurityViolation, nil)
}

// RateLimited sends a 429 response with a Retry-After header in whole seconds.
func RateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds(retryAfter)))
	Error(w, constants.StatusTooManyRequests, constants.TypeRateLimited, constants.MsgRateLimited, nil)
}

// RetryAfterSeconds rounds a duration up to whole seconds, with a floor of one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// GetPaginationParams extracts limit/offset parameters from the request,
// clamping the limit to [MinPageSize, MaxPageSize].
func GetPaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{
		Limit:  constants.DefaultPageSize,
		Offset: 0,
	}

	if raw := r.URL.Query().Get(constants.QueryParamLimit); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			switch {
			case limit < constants.MinPageSize:
				params.Limit = constants.MinPageSize
			case limit > constants.MaxPageSize:
				params.Limit = constants.MaxPageSize
			default:
				params.Limit = limit
			}
		}
	}

	if raw := r.URL.Query().Get(constants.QueryParamOffset); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			params.Offset = offset
		}
	}

	return params
}
