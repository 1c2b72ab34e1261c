package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// PingFunc reports whether an optional dependency is reachable.
type PingFunc func(ctx context.Context) error

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Checks the identity store, the token signer and, when configured, the shared login throttle.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"one or more checks failed"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	tokens *service.TokenService,
	throttlePing PingFunc,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		status := "ok"
		code := http.StatusOK
		degrade := func() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}

		if err := tokens.Ready(); err != nil {
			checks.Signer = "error: " + err.Error()
			degrade()
		}

		if throttlePing != nil {
			checks.Throttle = "ok"
			if err := throttlePing(ctx); err != nil {
				checks.Throttle = "error: " + err.Error()
				degrade()
			}
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
