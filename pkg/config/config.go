package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Session      SessionConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Session.validate(cfg.JWT); err != nil {
		return nil, err
	}
	// session cookies never travel over plain http in production
	if cfg.App.IsProd() {
		cfg.Session.Secure = true
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"PHARMACY_APP_ENV" required:"true"`
	Port            string        `envconfig:"PHARMACY_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"PHARMACY_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"PHARMACY_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"PHARMACY_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PHARMACY_DB_DSN"`

	Host     string `envconfig:"PHARMACY_DB_HOST"`
	Port     int    `envconfig:"PHARMACY_DB_PORT" default:"5432"`
	User     string `envconfig:"PHARMACY_DB_USER"`
	Password string `envconfig:"PHARMACY_DB_PASSWORD"`
	Name     string `envconfig:"PHARMACY_DB_NAME"`
	SSLMode  string `envconfig:"PHARMACY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMACY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMACY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMACY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMACY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMACY_REDIS_URL"`
	Address      string        `envconfig:"PHARMACY_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMACY_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMACY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMACY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMACY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMACY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMACY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMACY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PHARMACY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PHARMACY_JWT_ISSUER" default:"pharmacy-inventory"`
	ExpirationMinutes int    `envconfig:"PHARMACY_JWT_EXPIRATION_MINUTES" default:"480"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SessionConfig controls the login cookie and the server-side session record.
type SessionConfig struct {
	CookieName string        `envconfig:"PHARMACY_SESSION_COOKIE_NAME" default:"pharmacy_session"`
	Secure     bool          `envconfig:"PHARMACY_SESSION_COOKIE_SECURE" default:"false"`
	TTL        time.Duration `envconfig:"PHARMACY_SESSION_TTL" default:"8h"`
}

func (s SessionConfig) validate(jwt JWTConfig) error {
	if strings.TrimSpace(s.CookieName) == "" {
		return fmt.Errorf("%s must not be empty", EnvSessionCookieName)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionTTL)
	}
	if s.TTL < jwt.TokenTTL() {
		return fmt.Errorf("session ttl (%s) must cover the token ttl (%s)", s.TTL, jwt.TokenTTL())
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMACY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMACY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMACY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMACY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMACY_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"PHARMACY_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"PHARMACY_SQLITE_PATH" default:"pharmacy.db"`
	AutoMigrate bool   `envconfig:"PHARMACY_AUTO_MIGRATE" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PHARMACY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
