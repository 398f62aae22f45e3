package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Invites       InviteConfig
	Sendgrid      SendgridConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMHQ_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMHQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMHQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMHQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PHARMHQ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMHQ_DB_DSN"`
	Driver string `envconfig:"PHARMHQ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMHQ_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMHQ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMHQ_DB_USER"`
	LegacyPassword string `envconfig:"PHARMHQ_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMHQ_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMHQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMHQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMHQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMHQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMHQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMHQ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMHQ_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMHQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMHQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMHQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMHQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMHQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMHQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMHQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PHARMHQ_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PHARMHQ_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PHARMHQ_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PHARMHQ_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMHQ_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMHQ_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMHQ_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMHQ_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMHQ_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PHARMHQ_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite             bool `envconfig:"PHARMHQ_USE_SQLITE" default:"false"`
	AutoMigrate           bool `envconfig:"PHARMHQ_AUTO_MIGRATE" default:"false"`
	PersistLegacyProfiles bool `envconfig:"PHARMHQ_PERSIST_LEGACY_PROFILES" default:"false"`
}

type InviteConfig struct {
	// ExpiryDays is the invite validity window from creation.
	ExpiryDays int `envconfig:"PHARMHQ_INVITE_EXPIRY_DAYS" default:"7"`
	// AcceptURLBase is the web origin used when building invite links,
	// e.g. https://app.pharmhq.io.
	AcceptURLBase string `envconfig:"PHARMHQ_INVITE_ACCEPT_URL_BASE" required:"true"`
}

// Expiry returns the invite validity window as a duration.
func (i InviteConfig) Expiry() time.Duration {
	days := i.ExpiryDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// AcceptLink builds the acceptance URL embedded in invite emails.
func (i InviteConfig) AcceptLink(token string) string {
	base := strings.TrimRight(i.AcceptURLBase, "/")
	return fmt.Sprintf("%s/auth/accept-invite?token=%s", base, url.QueryEscape(token))
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PHARMHQ_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"PHARMHQ_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"PHARMHQ_SENDGRID_FROM_NAME" default:"PharmHQ"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
