package service

import "time"

// ServerMode selects how grants are kept. Cascade revocation on code replay
// only happens in persistent mode.
type ServerMode string

const (
	ServerModeMemory     ServerMode = "memory"
	ServerModePersistent ServerMode = "persistent"
)

// Default lifetimes.
const (
	DefaultAccessTokenTTL          = 5 * time.Minute
	DefaultRefreshTokenTTL         = 30 * 24 * time.Hour
	DefaultIDTokenTTL              = time.Hour
	DefaultLongLivedAccessTokenTTL = 365 * 24 * time.Hour
	DefaultCodeTTL                 = 60 * time.Second
	DefaultParTTL                  = 600 * time.Second
)

// Config is the engine configuration shared by the services. It is passed
// explicitly to each constructor.
type Config struct {
	Issuer string
	Mode   ServerMode
	FAPI   bool

	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	IDTokenTTL              time.Duration
	LongLivedAccessTokenTTL time.Duration
	CodeTTL                 time.Duration
	ParTTL                  time.Duration

	// AccessTokenAsJWT issues signed access tokens for every client.
	AccessTokenAsJWT bool
}

// WithDefaults fills unset lifetimes.
func (c Config) WithDefaults() Config {
	if c.Mode == "" {
		c.Mode = ServerModeMemory
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.IDTokenTTL <= 0 {
		c.IDTokenTTL = DefaultIDTokenTTL
	}
	if c.LongLivedAccessTokenTTL <= 0 {
		c.LongLivedAccessTokenTTL = DefaultLongLivedAccessTokenTTL
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = DefaultCodeTTL
	}
	if c.ParTTL <= 0 {
		c.ParTTL = DefaultParTTL
	}
	return c
}

// IsPersistent reports whether grants survive restarts.
func (c Config) IsPersistent() bool { return c.Mode == ServerModePersistent }
