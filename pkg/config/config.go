package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable the platform reads.
const EnvPrefix = "NYUMBA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced by error messages and tests.
const (
	EnvAppEnv                 = "NYUMBA_APP_ENV"
	EnvPort                   = "NYUMBA_APP_PORT"
	EnvDBDSN                  = "NYUMBA_DB_DSN"
	EnvDBHost                 = "NYUMBA_DB_HOST"
	EnvDBUser                 = "NYUMBA_DB_USER"
	EnvDBName                 = "NYUMBA_DB_NAME"
	EnvRedisURL               = "NYUMBA_REDIS_URL"
	EnvJWTSecret              = "NYUMBA_JWT_SECRET"
	EnvJWTIssuer              = "NYUMBA_JWT_ISSUER"
	EnvJWTExpMins             = "NYUMBA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "NYUMBA_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "NYUMBA_GCP_PROJECT_ID"
	EnvGCSBucket              = "NYUMBA_GCS_BUCKET_NAME"
	EnvPubSubDomainTopic      = "NYUMBA_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "NYUMBA_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Reconciler    ReconcilerConfig
	Mail          MailConfig
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
	Env          string `envconfig:"NYUMBA_APP_ENV" required:"true"`
	Port         string `envconfig:"NYUMBA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NYUMBA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NYUMBA_LOG_WARN_STACK" default:"false"`
	PortalURL    string `envconfig:"NYUMBA_PORTAL_URL" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NYUMBA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NYUMBA_DB_DSN"`
	Driver string `envconfig:"NYUMBA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NYUMBA_DB_HOST"`
	LegacyPort     int    `envconfig:"NYUMBA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NYUMBA_DB_USER"`
	LegacyPassword string `envconfig:"NYUMBA_DB_PASSWORD"`
	LegacyName     string `envconfig:"NYUMBA_DB_NAME"`
	LegacySSLMode  string `envconfig:"NYUMBA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NYUMBA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NYUMBA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NYUMBA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NYUMBA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NYUMBA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NYUMBA_REDIS_ADDR"`
	Password     string        `envconfig:"NYUMBA_REDIS_PASSWORD"`
	DB           int           `envconfig:"NYUMBA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NYUMBA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NYUMBA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NYUMBA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NYUMBA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NYUMBA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NYUMBA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NYUMBA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"NYUMBA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"NYUMBA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NYUMBA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NYUMBA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NYUMBA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NYUMBA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NYUMBA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NYUMBA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NYUMBA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NYUMBA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NYUMBA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NYUMBA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NYUMBA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool   `envconfig:"NYUMBA_USE_SQLITE" default:"false"`
	AutoMigrate   bool   `envconfig:"NYUMBA_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"NYUMBA_GCS_ACCESS_MODE" default:"public"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"NYUMBA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NYUMBA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"NYUMBA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NYUMBA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"NYUMBA_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"NYUMBA_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"NYUMBA_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	MaxUploadMB       int           `envconfig:"NYUMBA_GCS_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"NYUMBA_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription       string `envconfig:"NYUMBA_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	NotificationSubscription string `envconfig:"NYUMBA_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
	ReconcilerSubscription   string `envconfig:"NYUMBA_PUBSUB_RECONCILER_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NYUMBA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NYUMBA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NYUMBA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ReconcilerConfig struct {
	SweepInterval time.Duration `envconfig:"NYUMBA_RECONCILER_SWEEP_INTERVAL" default:"5m"`
	BatchSize     int           `envconfig:"NYUMBA_RECONCILER_BATCH_SIZE" default:"100"`
}

type MailConfig struct {
	FromAddress  string `envconfig:"NYUMBA_MAIL_FROM" default:"no-reply@nyumba.app"`
	ResetBaseURL string `envconfig:"NYUMBA_MAIL_RESET_URL" default:"http://localhost:5173/reset-password"`
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
