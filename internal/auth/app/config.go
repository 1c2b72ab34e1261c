package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/throttle"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/joho/godotenv"

	httpapi "github.com/aussiebroadwan/gatekeeper/internal/auth/http"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer          string        // Issuer claim for tokens (default: gatekeeper-auth)
	TokenSecret     string        // HMAC secret, at least 32 bytes. Mutually exclusive with TokenSecretFile
	TokenSecretFile string        // Path to a file holding the HMAC secret
	TokenTTL        time.Duration // Token lifetime (default: 1h)
	TokenLeeway     time.Duration // Clock skew tolerated on exp (default: 0)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // Path to SQLite database file (default: ./auth.db)
	DatabaseURL    string // Postgres connection URL, required for the postgres driver

	PepperFile     string // Path to file containing pepper for password hashing (default: ./pepper)
	PasswordScheme string // argon2id or bcrypt for new hashes (default: argon2id)
	BcryptCost     int    // Cost for new bcrypt hashes (default: 12)

	PublicPaths           []string // Glob patterns the request filter skips
	DefaultAuthorities    []string // Granted when registration requests none (default: ROLE_USER)
	AssignableAuthorities []string // Registration may request only these (default: ROLE_USER)

	LoginMaxAttempts int           // Failed logins before lockout, 0 disables (default: 5)
	LoginWindow      time.Duration // Lockout window (default: 15m)

	RedisAddr     string // Optional: shares the login throttle through redis
	RedisPassword string
	RedisDB       int

	RateLimits httpx.RateLimitProfiles

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads the environment. A .env file in the working directory is
// applied first; variables already set win.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:          getEnvOrDefault("AUTH_ISSUER", "gatekeeper-auth"),
		TokenSecret:     os.Getenv("AUTH_TOKEN_SECRET"),
		TokenSecretFile: os.Getenv("AUTH_TOKEN_SECRET_FILE"),
		TokenTTL:        getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		TokenLeeway:     getEnvDurationOrDefault("AUTH_TOKEN_LEEWAY", 0),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),

		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		PasswordScheme: strings.ToLower(getEnvOrDefault("AUTH_PASSWORD_SCHEME", cryptox.SchemeArgon2id)),
		BcryptCost:     getEnvIntOrDefault("AUTH_BCRYPT_COST", cryptox.DefaultBcryptCost),

		PublicPaths:           getEnvListOrDefault("AUTH_PUBLIC_PATHS", httpapi.DefaultPublicPaths),
		DefaultAuthorities:    getEnvListOrDefault("AUTH_DEFAULT_AUTHORITIES", []string{"ROLE_USER"}),
		AssignableAuthorities: getEnvListOrDefault("AUTH_ASSIGNABLE_AUTHORITIES", []string{"ROLE_USER"}),

		LoginMaxAttempts: getEnvIntOrDefault("AUTH_LOGIN_MAX_ATTEMPTS", throttle.DefaultMaxAttempts),
		LoginWindow:      getEnvDurationOrDefault("AUTH_LOGIN_WINDOW", throttle.DefaultWindow),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		RateLimits: httpx.RateLimitProfilesFromEnv(),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every misconfiguration it finds.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Issuer) == "" {
		errs = append(errs, errors.New("AUTH_ISSUER must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_LEEWAY must not be negative"))
	}

	switch {
	case c.TokenSecret != "" && c.TokenSecretFile != "":
		errs = append(errs, errors.New("set only one of AUTH_TOKEN_SECRET and AUTH_TOKEN_SECRET_FILE"))
	case c.TokenSecret == "" && c.TokenSecretFile == "":
		errs = append(errs, errors.New("AUTH_TOKEN_SECRET or AUTH_TOKEN_SECRET_FILE is required"))
	case c.TokenSecret != "" && len(c.TokenSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE must not be empty"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.PasswordScheme {
	case cryptox.SchemeArgon2id, cryptox.SchemeBcrypt:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PASSWORD_SCHEME %q", c.PasswordScheme))
	}

	if len(c.DefaultAuthorities) == 0 {
		errs = append(errs, errors.New("AUTH_DEFAULT_AUTHORITIES must not be empty"))
	}
	for _, a := range c.DefaultAuthorities {
		if !slices.Contains(c.AssignableAuthorities, a) {
			errs = append(errs, fmt.Errorf("default authority %q is not assignable", a))
		}
	}

	if _, err := httpx.NewPathMatcher(c.PublicPaths...); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_PUBLIC_PATHS: %w", err))
	}

	if c.LoginMaxAttempts < 0 {
		errs = append(errs, errors.New("AUTH_LOGIN_MAX_ATTEMPTS must not be negative"))
	}
	if c.LoginWindow <= 0 {
		errs = append(errs, errors.New("AUTH_LOGIN_WINDOW must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits on commas and whitespace.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return defaultValue
	}
	return fields
}
