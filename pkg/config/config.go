package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "royal"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ROYAL_DB_DSN"
	EnvDBHost = "ROYAL_DB_HOST"
	EnvDBUser = "ROYAL_DB_USER"
	EnvDBName = "ROYAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"ROYAL_APP_ENV" required:"true"`
	Port         string `envconfig:"ROYAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROYAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROYAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ROYAL_DB_DSN"`
	Driver string `envconfig:"ROYAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROYAL_DB_HOST"`
	LegacyPort     int    `envconfig:"ROYAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROYAL_DB_USER"`
	LegacyPassword string `envconfig:"ROYAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROYAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROYAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROYAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROYAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROYAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROYAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROYAL_REDIS_URL"`
	Address      string        `envconfig:"ROYAL_REDIS_ADDR"`
	Password     string        `envconfig:"ROYAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROYAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROYAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROYAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROYAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROYAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROYAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROYAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROYAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ROYAL_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ROYAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ROYAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ROYAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ROYAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ROYAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ROYAL_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"ROYAL_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"ROYAL_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"ROYAL_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"ROYAL_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"ROYAL_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROYAL_AUTO_MIGRATE" default:"false"`
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
