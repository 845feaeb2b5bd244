package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when the offer payload fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeNotFound is used when the requested route does not exist
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Generation error codes, matching the pipeline failure taxonomy
const (
	// ErrCodeTemplateNotFound is used when a template source is missing
	ErrCodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	// ErrCodeTemplateSyntax is used when a template fails to parse
	ErrCodeTemplateSyntax = "TEMPLATE_SYNTAX"
	// ErrCodeAssetNotFound is used when a referenced image is missing
	ErrCodeAssetNotFound = "ASSET_NOT_FOUND"
	// ErrCodeRenderTimeout is used when the browser render times out
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	// ErrCodeWorkflowTimeout is used when the whole run exceeds its budget
	ErrCodeWorkflowTimeout = "WORKFLOW_TIMEOUT"
	// ErrCodeRenderFailed is used for browser rendering failures
	ErrCodeRenderFailed = "RENDER_FAILED"
	// ErrCodeBrowserLaunch is used when the browser cannot be started
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH_FAILED"
	// ErrCodeStorageFailed is used when artifact persistence fails
	ErrCodeStorageFailed = "STORAGE_FAILED"
	// ErrCodeOutputDirMissing is used when an output directory cannot be created
	ErrCodeOutputDirMissing = "OUTPUT_DIR_MISSING"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,

	// Configuration and pipeline failures -> 500 Internal Server Error
	ErrCodeTemplateNotFound: http.StatusInternalServerError,
	ErrCodeTemplateSyntax:   http.StatusInternalServerError,
	ErrCodeAssetNotFound:    http.StatusInternalServerError,
	ErrCodeRenderFailed:     http.StatusInternalServerError,
	ErrCodeBrowserLaunch:    http.StatusInternalServerError,
	ErrCodeStorageFailed:    http.StatusInternalServerError,
	ErrCodeOutputDirMissing: http.StatusInternalServerError,

	// Timeouts -> 504 Gateway Timeout
	ErrCodeRenderTimeout:   http.StatusGatewayTimeout,
	ErrCodeWorkflowTimeout: http.StatusGatewayTimeout,

	ErrCodeInvalidState: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API format
var LegacyErrorCodeMapping = map[string]string{
	"INVALID_INPUT": ErrCodeValidation,
	"INVALID_STATE": ErrCodeInvalidState,
	"BAD_REQUEST":   ErrCodeBadRequest,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format pass through as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := LegacyErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
