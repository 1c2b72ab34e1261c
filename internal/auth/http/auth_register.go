package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// RegisterHandler serves POST /api/v1/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP registers a principal and returns its first token.
//
//	@Summary		Register a principal
//	@Description	Creates a principal and returns a bearer token for it. Requested authorities must be assignable; none means the defaults.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest			true	"Registration candidate"
//	@Success		200		{object}	authsdk.TokenResponse			"token, token_type, expires_in"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid body or validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Identifier already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse			"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Header			200		{string}	Cache-Control					"no-store"
//	@Router			/api/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.AuthService.Register(ctx, service.RegisterRequest{
		Username:    req.Username,
		Password:    req.Password,
		Authorities: req.Authorities,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentifierTaken):
			authsdk.ErrIdentifierTaken.WriteError(w)
		case errors.Is(err, service.ErrUnassignableAuthority):
			authsdk.ErrUnassignableAuthority.WriteError(w)
		case errors.Is(err, service.ErrInvalidRegistration):
			authsdk.ErrInvalidRegistration.WriteError(w)
		default:
			log.Error("registration failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}
