package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Reconcile    ReconcileConfig
	Import       ImportConfig
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
	Env          string `envconfig:"CARDLEDGER_APP_ENV" default:"dev"`
	Port         string `envconfig:"CARDLEDGER_APP_PORT" default:"8787"`
	LogLevel     string `envconfig:"CARDLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARDLEDGER_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma separated list of UI origins allowed to call the API.
	CORSOrigins []string `envconfig:"CARDLEDGER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARDLEDGER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARDLEDGER_DB_DSN"`
	Driver string `envconfig:"CARDLEDGER_DB_DRIVER" default:"sqlite"`

	DataDir  string `envconfig:"CARDLEDGER_DATA_DIR"`
	Filename string `envconfig:"CARDLEDGER_DB_FILENAME" default:"gift_card_manager.sqlite3"`

	LegacyHost     string `envconfig:"CARDLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"CARDLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARDLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"CARDLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARDLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARDLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARDLEDGER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CARDLEDGER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CARDLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARDLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"CARDLEDGER_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the store runs on the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite) || strings.TrimSpace(db.Driver) == ""
}

type RedisConfig struct {
	URL          string        `envconfig:"CARDLEDGER_REDIS_URL"`
	Address      string        `envconfig:"CARDLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"CARDLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARDLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARDLEDGER_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"CARDLEDGER_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"CARDLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARDLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARDLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"CARDLEDGER_AUTO_MIGRATE" default:"true"`
	SeedRetailers bool `envconfig:"CARDLEDGER_SEED_RETAILERS" default:"true"`
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"CARDLEDGER_RECONCILE_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"CARDLEDGER_RECONCILE_LOCK_TTL" default:"1h"`
	Repair   bool          `envconfig:"CARDLEDGER_RECONCILE_REPAIR" default:"true"`
}

type ImportConfig struct {
	MaxFailures int `envconfig:"CARDLEDGER_IMPORT_MAX_FAILURES" default:"0"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		dir := db.DataDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			dir = filepath.Join(home, DefaultDataDirName)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data dir %q: %w", dir, err)
		}
		db.DSN = SQLiteFileDSN(filepath.Join(dir, db.Filename))
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

// SQLiteFileDSN builds a sqlite DSN with foreign keys enforced on every connection.
func SQLiteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}
