//go:build e2e

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "gatekeeper-auth-test:latest"

	tokenSecret   = "e2e-secret-0123456789abcdef-0123456789"
	testPassword  = "correct horse battery staple"
	adminUsername = "admin@example.com"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Image might not exist
}

// baseEnv is the container environment shared by every test. Rate limits are
// raised because tests make many rapid requests from one address.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_TOKEN_SECRET":           tokenSecret,
		"AUTH_DATABASE_FILE":          "/data/auth.db",
		"AUTH_PEPPER_FILE":            "/data/pepper",
		"AUTH_ISSUER":                 "gatekeeper-e2e",
		"AUTH_ASSIGNABLE_AUTHORITIES": "ROLE_USER,ROLE_ADMIN",
		"AUTH_LOGIN_MAX_ATTEMPTS":     "3",
		"AUTH_LOGIN_WINDOW":           "1m",
		"ENV":                         "test",
		"LOG_LEVEL":                   "info",
		"LOG_FORMAT":                  "json",
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// setupAuthContainer starts the service with relaxed rate limits and returns
// its base URL.
func setupAuthContainer(t *testing.T) string {
	t.Helper()
	return startContainer(t, baseEnv())
}

// setupAuthContainerWithEnv starts the service with overrides applied to
// the base environment. An empty value removes the variable.
func setupAuthContainerWithEnv(t *testing.T, overrides map[string]string) string {
	t.Helper()

	env := baseEnv()
	maps.Copy(env, overrides)
	for k, v := range env {
		if v == "" {
			delete(env, k)
		}
	}
	return startContainer(t, env)
}

func startContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// registerUser registers username with the shared test password and
// returns its session.
func registerUser(t *testing.T, client *authsdk.SDKClient, username string, authorities ...string) *authsdk.Session {
	t.Helper()

	session, err := client.RegisterAndAuthenticate(t.Context(), authsdk.RegisterRequest{
		Username:    username,
		Password:    testPassword,
		Authorities: authorities,
	})
	require.NoError(t, err, "registration of %s should succeed", username)
	require.NotEmpty(t, session.AccessToken())
	return session
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertStatus checks the HTTP status carried by an SDK error.
func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status: %v", err)
}
