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

// AuthorityAdmin guards the admin endpoints.
const AuthorityAdmin = "ROLE_ADMIN"

type AdminHandler struct {
	UserService *service.UserService
}

// HandlePing reports that the caller holds ROLE_ADMIN.
//
//	@Summary		Admin ping
//	@Description	Succeeds only for principals holding ROLE_ADMIN.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.AdminPingResponse	"status, principals"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Not authenticated"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Missing ROLE_ADMIN"
//	@Router			/api/v1/admin/ping [get].
func (h *AdminHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.UserService.Count(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to count principals", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AdminPingResponse{Status: "ok", Principals: n})
}

// HandleSetActive enables or disables a principal.
//
//	@Summary		Enable or disable a principal
//	@Description	Disabled principals cannot log in and their tokens stop authenticating.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Param			id		path	string						true	"Principal ID"
//	@Param			request	body	authsdk.SetActiveRequest	true	"Desired state"
//	@Success		204		"No Content"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Not authenticated"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Missing ROLE_ADMIN"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown principal"
//	@Router			/api/v1/admin/principals/{id}/active [put].
func (h *AdminHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")
	if id == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	var req setActiveBody
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.UserService.SetActive(ctx, id, *req.Active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("failed to update principal", "principal_id", id, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("principal active flag changed",
		"principal_id", id,
		"active", *req.Active,
		"by", httpx.SecurityContextFrom(ctx).PrincipalID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// setActiveBody distinguishes a missing "active" from false.
type setActiveBody struct {
	Active *bool `json:"active"`
}

func (b *setActiveBody) Validate() map[string]string {
	if b.Active == nil {
		return map[string]string{"active": "cannot be blank"}
	}
	return nil
}
