package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// ServeHTTP returns the authenticated principal.
//
//	@Summary		Current principal
//	@Description	Returns the principal the bearer token authenticates.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.PrincipalResponse	"id, username, authorities"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing or invalid bearer token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/api/v1/users/me [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sc := httpx.SecurityContextFrom(ctx)
	if !sc.Authenticated || sc.PrincipalID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	p, err := h.UserService.GetPrincipalByID(ctx, sc.PrincipalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrUnauthorized.WriteError(w)
			return
		}
		log.Warn("failed to load principal", "principal_id", sc.PrincipalID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	authorities := p.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.PrincipalResponse{
		ID:          p.ID,
		Username:    p.Username,
		Authorities: authorities,
	})
}
