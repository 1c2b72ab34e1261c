package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// LoadTokenSecret returns the HMAC secret from AUTH_TOKEN_SECRET or the file
// named by AUTH_TOKEN_SECRET_FILE. Trailing newlines in the file are dropped.
func LoadTokenSecret(cfg Config) ([]byte, error) {
	var secret []byte

	switch {
	case cfg.TokenSecret != "" && cfg.TokenSecretFile != "":
		return nil, errors.New("token secret configured twice")
	case cfg.TokenSecret != "":
		secret = []byte(cfg.TokenSecret)
	case cfg.TokenSecretFile != "":
		raw, err := os.ReadFile(cfg.TokenSecretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret: %w", err)
		}
		secret = []byte(strings.TrimRight(string(raw), "\r\n"))
	default:
		return nil, fmt.Errorf("no token secret configured: %w", jwtx.ErrWeakSecret)
	}

	if len(secret) < jwtx.MinSecretLength {
		return nil, jwtx.ErrWeakSecret
	}
	return secret, nil
}
