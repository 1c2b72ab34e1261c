package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// validator is implemented by the authsdk request types.
type validator interface {
	Validate() map[string]string
}

// decodeAndValidate reads a JSON body into dst and runs its validation. On
// failure the error response has been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst validator) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			authsdk.ErrInvalidContentType.WriteError(w)
			return false
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			authsdk.NewAPIError(http.StatusRequestEntityTooLarge, authsdk.ErrorCodeInvalidRequest, "request body too large").WriteError(w)
			return false
		}
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Error:            authsdk.ErrorCodeInvalidRequest,
			ErrorDescription: "Request body must be valid JSON",
		})
		return false
	}

	if errs := dst.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
			Code:    authsdk.ErrorCodeValidation,
			Message: "validation failed for some fields",
			Details: errs,
		})
		return false
	}
	return true
}
