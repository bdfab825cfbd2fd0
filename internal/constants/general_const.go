// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines request parameter names. These constants keep
// query strings consistent across the admin endpoints.
package constants

// Query Parameters define common query string parameter names.
const (
	// QueryParamLimit is the maximum number of rows returned.
	QueryParamLimit = "limit"

	// QueryParamOffset is the number of rows skipped.
	QueryParamOffset = "offset"

	// QueryParamType filters security events by type.
	QueryParamType = "type"

	// QueryParamSince filters security events created after an RFC 3339 timestamp.
	QueryParamSince = "since"
)
