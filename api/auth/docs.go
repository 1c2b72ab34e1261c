// Package auth holds the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth --outputTypes go
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/gatekeeper"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/auth/register": {
            "post": {
                "description": "Creates a principal and returns a bearer token for it. Requested authorities must be assignable; none means the defaults.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register a principal",
                "parameters": [
                    {
                        "description": "Registration candidate",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.RegisterRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "token, token_type, expires_in",
                        "schema": {"$ref": "#/definitions/authsdk.TokenResponse"},
                        "headers": {"Cache-Control": {"type": "string", "description": "no-store"}}
                    },
                    "400": {"description": "Invalid body or validation failed", "schema": {"$ref": "#/definitions/authsdk.ValidationErrorResponse"}},
                    "409": {"description": "Identifier already registered", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "description": "Verifies a username and password and returns a bearer token. Every failure cause yields the same invalid_credentials response.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "token, token_type, expires_in",
                        "schema": {"$ref": "#/definitions/authsdk.TokenResponse"},
                        "headers": {"Cache-Control": {"type": "string", "description": "no-store"}}
                    },
                    "400": {"description": "Invalid body or validation failed", "schema": {"$ref": "#/definitions/authsdk.ValidationErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "429": {"description": "Too many failed attempts or rate limit exceeded", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the principal the bearer token authenticates.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Current principal",
                "responses": {
                    "200": {"description": "id, username, authorities", "schema": {"$ref": "#/definitions/authsdk.PrincipalResponse"}},
                    "401": {"description": "Missing or invalid bearer token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/ping": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Succeeds only for principals holding ROLE_ADMIN.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Admin ping",
                "responses": {
                    "200": {"description": "status, principals", "schema": {"$ref": "#/definitions/authsdk.AdminPingResponse"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Missing ROLE_ADMIN", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/principals/{id}/active": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Disabled principals cannot log in and their tokens stop authenticating.",
                "consumes": ["application/json"],
                "tags": ["Admin"],
                "summary": "Enable or disable a principal",
                "parameters": [
                    {"type": "string", "description": "Principal ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Desired state",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.SetActiveRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Missing ROLE_ADMIN", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "404": {"description": "Unknown principal", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/test/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Test"],
                "summary": "Public test endpoint",
                "responses": {
                    "200": {
                        "description": "status",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Returns 200 OK with uptime and version while the process is running.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Checks the identity store, the token signer and, when configured, the shared login throttle.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "one or more checks failed", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.AdminPingResponse": {
            "type": "object",
            "properties": {
                "principals": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"description": "Error is the error code (e.g., \"invalid_request\", \"invalid_credentials\")", "type": "string"},
                "error_description": {"description": "ErrorDescription is a human-readable description of the error", "type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "signer": {"type": "string"},
                "throttle": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "authsdk.PrincipalResponse": {
            "type": "object",
            "properties": {
                "authorities": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "authsdk.RegisterRequest": {
            "type": "object",
            "properties": {
                "authorities": {"type": "array", "items": {"type": "string"}},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "authsdk.SetActiveRequest": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"}
            }
        },
        "authsdk.TokenResponse": {
            "type": "object",
            "properties": {
                "expires_in": {"type": "integer"},
                "token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "authsdk.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "Code is the error code (always \"validation_error\")", "type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Gatekeeper Authentication Service API",
	Description:      "Stateless bearer-token authentication. Register or log in to obtain an HS256 signed token, then send it as \"Authorization: Bearer {token}\".\n\nTokens are short-lived and cannot be refreshed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
