package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "PHARMHQ"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (error messages,
// tests).
const (
	EnvAppEnv                 = "PHARMHQ_APP_ENV"
	EnvPort                   = "PHARMHQ_APP_PORT"
	EnvDBDSN                  = "PHARMHQ_DB_DSN"
	EnvDBHost                 = "PHARMHQ_DB_HOST"
	EnvDBUser                 = "PHARMHQ_DB_USER"
	EnvDBName                 = "PHARMHQ_DB_NAME"
	EnvRedisURL               = "PHARMHQ_REDIS_URL"
	EnvJWTSecret              = "PHARMHQ_JWT_SECRET"
	EnvJWTIssuer              = "PHARMHQ_JWT_ISSUER"
	EnvJWTExpMins             = "PHARMHQ_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PHARMHQ_REFRESH_TOKEN_TTL_MINUTES"
	EnvInviteAcceptURLBase    = "PHARMHQ_INVITE_ACCEPT_URL_BASE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
