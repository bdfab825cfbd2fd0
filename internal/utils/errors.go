package utils

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// Custom error types for the application
var (
	ErrNotFound           = errors.New(constants.ErrorNotFound)
	ErrUnauthorized       = errors.New(constants.ErrorUnauthorized)
	ErrForbidden          = errors.New(constants.ErrorForbidden)
	ErrBadRequest         = errors.New(constants.ErrorBadRequest)
	ErrInternalServer     = errors.New(constants.ErrorInternalServer)
	ErrValidation         = errors.New(constants.ErrorValidation)
	ErrDuplicate          = errors.New(constants.ErrorDuplicate)
	ErrExpiredToken       = errors.New(constants.ErrorExpiredToken)
	ErrInvalidToken       = errors.New(constants.ErrorInvalidToken)
	ErrCSRF               = errors.New(constants.ErrorCSRF)
	ErrRateLimited        = errors.New(constants.ErrorRateLimited)
	ErrSecurityViolation  = errors.New(constants.ErrorSecurityViolation)
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError represents an application error with additional context
type AppError struct {
	Err        error  // The underlying error
	StatusCode int    // HTTP status code
	Message    string // User-friendly error message
	DevInfo    string // Additional information for developers, never rendered
	Field      string // Field related to the error (for validation errors)
	Details    map[string]string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Type returns the machine-readable error type rendered in error.type.
func (e *AppError) Type() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return constants.TypeNotFound
	case errors.Is(e.Err, ErrBadRequest):
		return constants.TypeBadRequest
	case errors.Is(e.Err, ErrUnauthorized):
		return constants.TypeUnauthorized
	case errors.Is(e.Err, ErrForbidden):
		return constants.TypeForbidden
	case errors.Is(e.Err, ErrValidation):
		return constants.TypeValidationError
	case errors.Is(e.Err, ErrDuplicate):
		return constants.TypeConflict
	case errors.Is(e.Err, ErrExpiredToken):
		return constants.TypeTokenExpired
	case errors.Is(e.Err, ErrInvalidToken):
		return constants.TypeTokenInvalid
	case errors.Is(e.Err, ErrCSRF):
		return constants.TypeCSRFValidationFailed
	case errors.Is(e.Err, ErrRateLimited):
		return constants.TypeRateLimited
	case errors.Is(e.Err, ErrSecurityViolation):
		return constants.TypeSecurityViolation
	case errors.Is(e.Err, ErrServiceUnavailable):
		return constants.TypeServiceUnavailable
	}
	return constants.TypeInternalError
}

// New creates a new AppError with the given error and status code
func New(err error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Field:      field,
	}
}

// NewValidationErrorWithDetails creates a validation error with multiple field details
func NewValidationErrorWithDetails(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Details:    details,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resourceType string, identifier interface{}) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	return &AppError{
		Err:        ErrUnauthorized,
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	return &AppError{
		Err:        ErrForbidden,
		StatusCode: http.StatusForbidden,
		Message:    message,
	}
}

// NewInternalServerError creates a new internal server error.
// The cause is kept in DevInfo for logs and never reaches the response body.
func NewInternalServerError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    constants.MsgInternalServerError,
		DevInfo:    devInfo,
	}
}

// NewDuplicateError creates a new duplicate resource error
func NewDuplicateError(resourceType, field string, value interface{}) *AppError {
	return &AppError{
		Err:        ErrDuplicate,
		StatusCode: http.StatusConflict,
		Message:    fmt.Sprintf("%s with %s '%v' already exists", resourceType, field, value),
		Field:      field,
	}
}

// NewExpiredTokenError creates a new expired token error
func NewExpiredTokenError() *AppError {
	return &AppError{
		Err:        ErrExpiredToken,
		StatusCode: http.StatusUnauthorized,
		Message:    constants.MsgTokenExpired,
	}
}

// NewInvalidTokenError creates a new invalid token error
func NewInvalidTokenError() *AppError {
	return &AppError{
		Err:        ErrInvalidToken,
		StatusCode: http.StatusUnauthorized,
		Message:    constants.MsgInvalidToken,
	}
}

// NewCSRFError creates the error returned when the double-submit check fails.
func NewCSRFError() *AppError {
	return &AppError{
		Err:        ErrCSRF,
		StatusCode: http.StatusForbidden,
		Message:    constants.MsgCSRFValidationFailed,
	}
}

// NewRateLimitedError creates the error returned when a caller is over budget.
func NewRateLimitedError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		StatusCode: http.StatusTooManyRequests,
		Message:    constants.MsgRateLimited,
	}
}

// NewSecurityViolationError creates the error returned when a payload matches
// a malicious-content signature. devInfo lists pattern types only.
func NewSecurityViolationError(devInfo string) *AppError {
	return &AppError{
		Err:        ErrSecurityViolation,
		StatusCode: http.StatusBadRequest,
		Message:    constants.MsgSecurityViolation,
		DevInfo:    devInfo,
	}
}

// NewServiceUnavailableError creates a new service unavailable error
func NewServiceUnavailableError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrServiceUnavailable,
		StatusCode: http.StatusServiceUnavailable,
		Message:    constants.MsgServiceUnavailable,
		DevInfo:    devInfo,
	}
}

// sentinelErrors maps sentinel errors to their AppError constructors.
var sentinelErrors = []struct {
	err  error
	make func(err error) *AppError
}{
	{ErrNotFound, func(error) *AppError { return NewNotFoundError("Resource", "") }},
	{ErrUnauthorized, func(error) *AppError { return NewUnauthorizedError("") }},
	{ErrForbidden, func(error) *AppError { return NewForbiddenError("") }},
	{ErrBadRequest, func(err error) *AppError { return NewBadRequestError(err.Error()) }},
	{ErrValidation, func(err error) *AppError { return NewValidationError("", err.Error()) }},
	{ErrDuplicate, func(error) *AppError { return NewDuplicateError("Resource", "", "") }},
	{ErrExpiredToken, func(error) *AppError { return NewExpiredTokenError() }},
	{ErrInvalidToken, func(error) *AppError { return NewInvalidTokenError() }},
	{ErrCSRF, func(error) *AppError { return NewCSRFError() }},
	{ErrRateLimited, func(error) *AppError { return NewRateLimitedError() }},
	{ErrSecurityViolation, func(error) *AppError { return NewSecurityViolationError("") }},
	{ErrServiceUnavailable, func(err error) *AppError { return NewServiceUnavailableError(err) }},
}

// ParseError maps an error to an AppError: AppErrors pass through, sentinel
// errors get their constructor, and driver errors for unique keys become
// conflicts. Anything else is an internal error.
func ParseError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return s.make(err)
		}
	}

	if conflict := parseDriverConflict(err); conflict != nil {
		return conflict
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &AppError{
			Err:        ErrNotFound,
			StatusCode: http.StatusNotFound,
			Message:    constants.MsgResourceNotFound,
			DevInfo:    err.Error(),
		}
	}

	return NewInternalServerError(err)
}

// parseDriverConflict recognizes unique key violations from both drivers.
func parseDriverConflict(err error) *AppError {
	conflict := func(field string) *AppError {
		return &AppError{
			Err:        ErrDuplicate,
			StatusCode: http.StatusConflict,
			Message:    constants.MsgResourceAlreadyExists,
			DevInfo:    err.Error(),
			Field:      field,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == constants.PGErrorDuplicateConstraint {
		return conflict(constraintField(pqErr.Constraint))
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == constants.MySQLErrorDuplicateEntry {
		return conflict("")
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return conflict("")
	}

	return nil
}

// constraintField extracts the column name from an idx_<column> constraint.
func constraintField(constraint string) string {
	if _, field, ok := strings.Cut(constraint, "idx_"); ok {
		return field
	}
	return ""
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return errors.Is(appErr.Err, ErrValidation)
	}
	return errors.Is(err, ErrValidation)
}

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
