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
	Drive        DriveConfig
	Storage      StorageConfig
	Media        MediaConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FERROMART_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"FERROMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FERROMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FERROMART_DB_DSN"`
	Driver string `envconfig:"FERROMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FERROMART_DB_HOST"`
	LegacyPort     int    `envconfig:"FERROMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FERROMART_DB_USER"`
	LegacyPassword string `envconfig:"FERROMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"FERROMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"FERROMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FERROMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FERROMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FERROMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FERROMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FERROMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FERROMART_REDIS_ADDR"`
	Password     string        `envconfig:"FERROMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FERROMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FERROMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FERROMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FERROMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FERROMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FERROMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DriveConfig targets the remote folder store the supplier drops photos into.
type DriveConfig struct {
	CredentialsJSON        string        `envconfig:"FERROMART_DRIVE_CREDENTIALS_JSON"`
	ApplicationCredentials string        `envconfig:"FERROMART_DRIVE_APPLICATION_CREDENTIALS"`
	RootFolderID           string        `envconfig:"FERROMART_DRIVE_ROOT_FOLDER_ID" required:"true"`
	SourceFolderID         string        `envconfig:"FERROMART_DRIVE_SOURCE_FOLDER_ID" required:"true"`
	PageSize               int           `envconfig:"FERROMART_DRIVE_PAGE_SIZE" default:"100"`
	HTTPTimeout            time.Duration `envconfig:"FERROMART_DRIVE_HTTP_TIMEOUT" default:"30s"`
}

type StorageConfig struct {
	RootDir       string `envconfig:"FERROMART_STORAGE_ROOT" required:"true"`
	PublicBaseURL string `envconfig:"FERROMART_STORAGE_PUBLIC_BASE_URL" default:"/static"`
}

type MediaConfig struct {
	MinImageBytes int64 `envconfig:"FERROMART_MEDIA_MIN_IMAGE_BYTES" default:"1024"`
	JPEGQuality   int   `envconfig:"FERROMART_MEDIA_JPEG_QUALITY" default:"85"`
}

type SyncConfig struct {
	Interval       time.Duration `envconfig:"FERROMART_SYNC_INTERVAL" default:"30m"`
	LockTTL        time.Duration `envconfig:"FERROMART_SYNC_LOCK_TTL" default:"1h"`
	DebugArtifacts bool          `envconfig:"FERROMART_SYNC_DEBUG_ARTIFACTS" default:"false"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FERROMART_AUTO_MIGRATE" default:"false"`
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
