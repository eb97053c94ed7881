package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
)

// PAR store drivers.
const (
	ParStoreSQLite = "sqlite"
	ParStoreRedis  = "redis"
)

// Key storage modes.
const (
	KeyStorageEphemeral  = "ephemeral"
	KeyStoragePersistent = "persistent"
)

type Config struct {
	ServerMode service.ServerMode // memory or persistent (default: memory)
	FAPI       bool               // Enforce FAPI rules on PAR and request objects
	Issuer     string             // Issuer claim for tokens and expected request object audience

	AccessTokenLifetime          time.Duration // default: 5m
	RefreshTokenLifetime         time.Duration // default: 30 days
	IDTokenLifetime              time.Duration // default: 1h
	LongLivedAccessTokenLifetime time.Duration // default: 365 days
	AuthorizationCodeLifetime    time.Duration // default: 60s
	AccessTokenFormat            string        // opaque or jwt (default: opaque)

	ParLifetime    time.Duration // default: 600s
	ParStoreDriver string        // sqlite or redis (default: sqlite)
	RedisAddr      string        // host:port of the shared PAR store
	RedisUsername  string
	RedisPassword  string
	RedisDB        int

	Algorithm      string // JWT signing algorithm (RS256, ES256, EdDSA) (default: ES256)
	RSABits        int    // RSA key size for RS256 (default: 2048)
	NumKeys        int    // Number of signing keys (default: 1, min: 1, max: 10)
	KeyStorageMode string // ephemeral or persistent (default: ephemeral)
	MasterKeyPath  string // Master sealing key file, falls back to AUTHZ_MASTER_KEY

	DatabaseFile string // SQLite database file (default: authz.db)
	PepperFile   string // File holding the password pepper (default: pepper)
	ClientsFile  string // Optional YAML seed of clients and users

	Env                  string        // dev, staging, prod (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // default: 10s
	HousekeepingInterval time.Duration // default: 1m
	RequestTimeout       time.Duration // Per-request deadline (default: 15s)

	RateLimits httpx.RateLimitProfiles
}

// LoadConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first when it exists; real environment
// variables take precedence over it.
func LoadConfig() Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("failed to load .env: %v", err)
		}
	}

	cfg := Config{
		ServerMode: service.ServerMode(strings.ToLower(getEnvOrDefault("AUTHZ_SERVER_MODE", string(service.ServerModeMemory)))),
		FAPI:       getEnvBoolOrDefault("AUTHZ_FAPI", false),
		Issuer:     os.Getenv("AUTHZ_ISSUER"),

		AccessTokenLifetime:          getEnvDurationOrDefault("AUTHZ_ACCESS_TOKEN_LIFETIME", service.DefaultAccessTokenTTL),
		RefreshTokenLifetime:         getEnvDurationOrDefault("AUTHZ_REFRESH_TOKEN_LIFETIME", service.DefaultRefreshTokenTTL),
		IDTokenLifetime:              getEnvDurationOrDefault("AUTHZ_ID_TOKEN_LIFETIME", service.DefaultIDTokenTTL),
		LongLivedAccessTokenLifetime: getEnvDurationOrDefault("AUTHZ_LONG_LIVED_ACCESS_TOKEN_LIFETIME", service.DefaultLongLivedAccessTokenTTL),
		AuthorizationCodeLifetime:    getEnvDurationOrDefault("AUTHZ_AUTHORIZATION_CODE_LIFETIME", service.DefaultCodeTTL),
		AccessTokenFormat:            strings.ToLower(getEnvOrDefault("AUTHZ_ACCESS_TOKEN_FORMAT", "opaque")),

		ParLifetime:    getEnvDurationOrDefault("AUTHZ_PAR_LIFETIME", service.DefaultParTTL),
		ParStoreDriver: strings.ToLower(getEnvOrDefault("AUTHZ_PAR_STORE", ParStoreSQLite)),
		RedisAddr:      getEnvOrDefault("AUTHZ_REDIS_ADDR", "localhost:6379"),
		RedisUsername:  os.Getenv("AUTHZ_REDIS_USERNAME"),
		RedisPassword:  os.Getenv("AUTHZ_REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("AUTHZ_REDIS_DB", 0),

		Algorithm:      getEnvOrDefault("AUTHZ_ALGORITHM", "ES256"),
		RSABits:        getEnvIntOrDefault("AUTHZ_RSA_BITS", 0),
		NumKeys:        getEnvIntOrDefault("AUTHZ_NUM_KEYS", 0),
		KeyStorageMode: getEnvOrDefault("AUTHZ_KEY_STORAGE_MODE", KeyStorageEphemeral),
		MasterKeyPath:  os.Getenv("AUTHZ_MASTER_KEY_PATH"),

		DatabaseFile: getEnvOrDefault("AUTHZ_DATABASE_FILE", "authz.db"),
		PepperFile:   getEnvOrDefault("AUTHZ_PEPPER_FILE", "pepper"),
		ClientsFile:  os.Getenv("AUTHZ_CLIENTS_FILE"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
		RequestTimeout:       getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),

		RateLimits: httpx.RateLimitProfilesFromEnv(),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.ServerMode {
	case service.ServerModeMemory, service.ServerModePersistent:
	default:
		errs = append(errs, fmt.Errorf("unknown server mode %q", c.ServerMode))
	}
	switch c.ParStoreDriver {
	case ParStoreSQLite:
	case ParStoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("AUTHZ_REDIS_ADDR is required for the redis PAR store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAR store %q", c.ParStoreDriver))
	}
	switch c.AccessTokenFormat {
	case "opaque", "jwt":
	default:
		errs = append(errs, fmt.Errorf("unknown access token format %q", c.AccessTokenFormat))
	}
	switch c.KeyStorageMode {
	case KeyStorageEphemeral, KeyStoragePersistent:
	default:
		errs = append(errs, fmt.Errorf("unknown key storage mode %q", c.KeyStorageMode))
	}
	return errors.Join(errs...)
}

// ServiceConfig is the engine configuration handed to every service.
func (c Config) ServiceConfig() service.Config {
	return service.Config{
		Issuer:                  c.Issuer,
		Mode:                    c.ServerMode,
		FAPI:                    c.FAPI,
		AccessTokenTTL:          c.AccessTokenLifetime,
		RefreshTokenTTL:         c.RefreshTokenLifetime,
		IDTokenTTL:              c.IDTokenLifetime,
		LongLivedAccessTokenTTL: c.LongLivedAccessTokenLifetime,
		CodeTTL:                 c.AuthorizationCodeLifetime,
		ParTTL:                  c.ParLifetime,
		AccessTokenAsJWT:        c.AccessTokenFormat == "jwt",
	}.WithDefaults()
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
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

	// Plain integers are seconds, the unit lifetimes are usually given in
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
