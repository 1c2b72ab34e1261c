/*
Package authsdk provides a client SDK for the Gatekeeper authentication service.

# Overview

Gatekeeper issues short-lived bearer tokens and keeps no session state. The SDK
covers the unauthenticated endpoints (via SDKClient) and authenticated calls
(via Session).

# SDKClient vs Session

  - SDKClient: register, login, health checks; creates sessions
  - Session: carries a bearer token and calls protected endpoints

Create an SDKClient to interact with public endpoints:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Register a principal and keep its token
	session, err := client.RegisterAndAuthenticate(ctx, authsdk.RegisterRequest{
		Username: "alice@example.com",
		Password: "correct horse battery staple",
	})

	// Or log in
	session, err = client.AuthenticateWithPassword(ctx, "alice@example.com", "correct horse battery staple")

Use a Session for authenticated operations:

	me, err := session.Me(ctx)

# Token Lifetime

Tokens cannot be refreshed. A Session refuses to send a token past its expiry
and returns ErrSessionExpired instead; log in again to get a new one. Set
SDKClient.CheckExpiry to false to send stale tokens anyway (useful in tests).

# Error Handling

Failed calls return *APIError, which compares with errors.Is against the
predefined errors:

	_, err := client.Login(ctx, authsdk.LoginRequest{Username: u, Password: p})
	switch {
	case errors.Is(err, authsdk.ErrInvalidCredentials):
		// wrong username or password, deliberately not told which
	case errors.Is(err, authsdk.ErrTooManyAttempts):
		// locked out for a while
	}

Payloads rejected field by field come back as *ValidationError. The same rules
are available locally:

	if errs := req.Validate(); errs != nil {
		for field, msg := range errs {
			fmt.Printf("%s: %s\n", field, msg)
		}
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
