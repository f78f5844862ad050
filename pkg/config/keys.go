package config

const (
	EnvPrefix = "PHARMACY"

	AppEnvProd = "prod"

	EnvAppEnv            = "PHARMACY_APP_ENV"
	EnvPort              = "PHARMACY_APP_PORT"
	EnvDBDSN             = "PHARMACY_DB_DSN"
	EnvDBHost            = "PHARMACY_DB_HOST"
	EnvDBUser            = "PHARMACY_DB_USER"
	EnvDBName            = "PHARMACY_DB_NAME"
	EnvDBPassword        = "PHARMACY_DB_PASSWORD"
	EnvRedisURL          = "PHARMACY_REDIS_URL"
	EnvJWTSecret         = "PHARMACY_JWT_SECRET"
	EnvJWTExpMins        = "PHARMACY_JWT_EXPIRATION_MINUTES"
	EnvSessionCookieName = "PHARMACY_SESSION_COOKIE_NAME"
	EnvSessionTTL        = "PHARMACY_SESSION_TTL"
	EnvUseSQLite         = "PHARMACY_USE_SQLITE"
	EnvCORSOrigins       = "PHARMACY_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
