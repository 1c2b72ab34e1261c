package authsdk

// ============================================================================
// Error Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the JSON error body. Client code should use APIError
// instead.
type ErrorResponse struct {
	// Error is the error code (e.g., "invalid_request", "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned when request validation fails.
type ValidationErrorResponse struct {
	// Code is the error code (always "validation_error")
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains field-specific validation errors (field name: error message)
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Authentication Types
// ============================================================================

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	// Username is the unique identifier, a username or an email address
	Username string `json:"username"`

	// Password is the raw password, only ever sent over TLS
	Password string `json:"password"`

	// Authorities requested for the new principal. Empty means the defaults.
	Authorities []string `json:"authorities,omitempty"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	// Token is the bearer access token
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int `json:"expires_in"`
}

// ============================================================================
// Principal Types
// ============================================================================

// PrincipalResponse describes the authenticated principal.
type PrincipalResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// SetActiveRequest enables or disables a principal.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AdminPingResponse is returned by GET /api/v1/admin/ping.
type AdminPingResponse struct {
	Status     string `json:"status"`
	Principals int64  `json:"principals"`
}

// ============================================================================
// Health Check Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of individual dependencies (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the token signing capability status
	Signer string `json:"signer"`

	// Throttle indicates the login throttle backend status, when it has one
	Throttle string `json:"throttle,omitempty"`
}
