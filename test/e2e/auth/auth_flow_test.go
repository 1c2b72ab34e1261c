//go:build e2e

package auth_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterLoginAndAccess walks the whole happy path: register, log in,
// then call a protected endpoint with each token.
func TestRegisterLoginAndAccess(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	registered := registerUser(t, client, "alice@example.com")

	me, err := registered.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", me.Username)
	require.Equal(t, []string{"ROLE_USER"}, me.Authorities)

	loggedIn, err := client.AuthenticateWithPassword(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	again, err := loggedIn.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, me.ID, again.ID)
}

func TestRegisterDuplicate(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	registerUser(t, client, "bob@example.com")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{Username: "bob@example.com", Password: testPassword})
	require.True(t, errors.Is(err, authsdk.ErrIdentifierTaken), "got %v", err)
}

func TestRegisterUnassignableAuthority(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Username:    "mallory@example.com",
		Password:    testPassword,
		Authorities: []string{"ROLE_SUPERUSER"},
	})
	require.True(t, errors.Is(err, authsdk.ErrUnassignableAuthority), "got %v", err)
}

func TestRegisterValidation(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{Username: "x", Password: "short"})

	var valErr *authsdk.ValidationError
	require.True(t, errors.As(err, &valErr), "got %T: %v", err, err)
	require.Contains(t, valErr.Details, "username")
	require.Contains(t, valErr.Details, "password")
}

func TestUnauthenticatedAccessRejected(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	// A session with no usable token sends no credentials at all.
	session := client.NewSessionFromToken("", 3600)
	_, err := session.Me(t.Context())
	require.True(t, errors.Is(err, authsdk.ErrUnauthorized), "got %v", err)
}
