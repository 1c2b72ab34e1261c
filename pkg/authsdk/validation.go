package authsdk

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Field limits shared by server-side validation and clients that want to
// check before sending.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 254
	PasswordMinLength = 8
	PasswordMaxLength = 128
	MaxAuthorities    = 16
)

var reAuthority = regexp.MustCompile(`^[A-Za-z0-9_:.-]+$`)

// Validate checks the registration payload. Returns a map of field names to
// error messages, or nil if all fields are valid.
func (r RegisterRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(UsernameMinLength, UsernameMaxLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
		validation.Field(&r.Authorities, validation.Length(0, MaxAuthorities), validation.By(validAuthorities)),
	))
}

// Validate checks the login payload. Only presence and an upper bound are
// enforced so that validation never hints at account rules.
func (r LoginRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, UsernameMaxLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, PasswordMaxLength)),
	))
}

func validAuthorities(v any) error {
	auths, _ := v.([]string)
	for _, a := range auths {
		if !reAuthority.MatchString(strings.TrimSpace(a)) {
			return errors.New("must only contain a-z, A-Z, 0-9, _, :, . or -")
		}
	}
	return nil
}

// fieldErrors flattens ozzo's errors into the wire form.
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
