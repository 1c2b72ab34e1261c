package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeValidation            = "validation_error"
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodeIdentifierTaken       = "identifier_taken"
	ErrorCodeUnassignableAuthority = "unassignable_authority"
	ErrorCodeTooManyAttempts       = "too_many_attempts"
	ErrorCodeRateLimitExceeded     = "rate_limit_exceeded"
	ErrorCodeServerError           = "server_error"
	ErrorCodeUnauthorized          = "unauthorized"
	ErrorCodeAccessDenied          = "access_denied"
	ErrorCodeNotFound              = "not_found"

	// ErrorCodeAuthenticationFailed is reported for the plain-text 401 the
	// request filter writes when it cannot process a bearer token.
	ErrorCodeAuthenticationFailed = "authentication_failed"
)

// ============================================================================
// APIError - error type shared by server and client
// ============================================================================

// APIError is the error body returned by the service. Handlers write it with
// WriteError and the client returns it from failed calls.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on status code and error code, so callers can write
// errors.Is(err, authsdk.ErrInvalidCredentials).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Code == t.Code
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the body is missing or not JSON.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidContentType is returned when the body is not application/json.
	ErrInvalidContentType = &APIError{
		StatusCode:  http.StatusUnsupportedMediaType,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type must be application/json",
	}

	// ErrInvalidCredentials is the single login failure. It never says whether
	// the identifier exists.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username or password",
	}

	// ErrIdentifierTaken is returned when registering an existing identifier.
	ErrIdentifierTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeIdentifierTaken,
		Description: "the identifier is already registered",
	}

	// ErrUnassignableAuthority is returned when registration asks for an
	// authority it may not have.
	ErrUnassignableAuthority = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnassignableAuthority,
		Description: "one or more requested authorities cannot be assigned",
	}

	// ErrInvalidRegistration is returned when a registration candidate is
	// rejected after validation (e.g. a password the hash scheme cannot take).
	ErrInvalidRegistration = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the registration request is invalid",
	}

	// ErrTooManyAttempts is returned while an identifier is locked out.
	ErrTooManyAttempts = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "too many failed login attempts, try again later",
	}

	// ErrServerError is returned on unexpected failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrUnauthorized is returned by protected endpoints without an
	// authenticated principal.
	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "authentication required",
	}

	// ErrAccessDenied is returned when the principal lacks an authority.
	ErrAccessDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "access denied",
	}

	// ErrNotFound is returned for unknown resources.
	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	// ErrAuthenticationFailed mirrors the request filter's fixed 401.
	ErrAuthenticationFailed = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeAuthenticationFailed,
		Description: httpx.AuthFailedBody,
	}
)

// NewAPIError creates a new APIError with the given status code, error code, and description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into a typed error. It
// recognises JSON error bodies, validation errors and the filter's plain-text
// 401.
func parseErrorResponse(resp *http.Response, body []byte) error {
	// Success responses
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized &&
		strings.TrimSpace(string(body)) == httpx.AuthFailedBody {
		return ErrAuthenticationFailed
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		return &ValidationError{
			StatusCode: resp.StatusCode,
			Message:    valErr.Message,
			Details:    valErr.Details,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

// ValidationError is returned by the client when the service rejected a
// payload field by field.
type ValidationError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %v", ErrorCodeValidation, e.Message, e.Details)
}
