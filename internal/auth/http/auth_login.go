package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// LoginHandler serves POST /api/v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP exchanges credentials for a token.
//
//	@Summary		Log in
//	@Description	Verifies a username and password and returns a bearer token. Every failure cause yields the same invalid_credentials response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse			"token, token_type, expires_in"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid body or validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse			"Too many failed attempts or rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Header			200		{string}	Cache-Control					"no-store"
//	@Router			/api/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(ctx, service.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrTooManyAttempts):
			authsdk.ErrTooManyAttempts.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}

func tokenResponse(res domain.AuthResult) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		Token:     res.Token,
		TokenType: res.TokenType,
		ExpiresIn: int(res.ExpiresIn.Seconds()),
	}
}
