package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "vruksha"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VRUKSHA_DB_DSN"
	EnvDBHost = "VRUKSHA_DB_HOST"
	EnvDBUser = "VRUKSHA_DB_USER"
	EnvDBName = "VRUKSHA_DB_NAME"
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
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Admin         AdminConfig
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
	Env          string `envconfig:"VRUKSHA_APP_ENV" required:"true"`
	Port         string `envconfig:"VRUKSHA_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"VRUKSHA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VRUKSHA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VRUKSHA_DB_DSN"`
	Driver string `envconfig:"VRUKSHA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VRUKSHA_DB_HOST"`
	LegacyPort     int    `envconfig:"VRUKSHA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VRUKSHA_DB_USER"`
	LegacyPassword string `envconfig:"VRUKSHA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VRUKSHA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VRUKSHA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"VRUKSHA_SQLITE_PATH" default:"vruksha.db"`

	MaxOpenConns    int           `envconfig:"VRUKSHA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VRUKSHA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VRUKSHA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VRUKSHA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VRUKSHA_REDIS_URL"`
	Address      string        `envconfig:"VRUKSHA_REDIS_ADDR"`
	Password     string        `envconfig:"VRUKSHA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VRUKSHA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VRUKSHA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VRUKSHA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VRUKSHA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VRUKSHA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VRUKSHA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VRUKSHA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VRUKSHA_JWT_ISSUER" default:"vruksha-api"`
	ExpirationMinutes int    `envconfig:"VRUKSHA_JWT_EXPIRATION_MINUTES" default:"1440"`
	ResetTTLMinutes   int    `envconfig:"VRUKSHA_RESET_TOKEN_TTL_MINUTES" default:"10"`
}

// ResetTokenTTL returns the password-reset token TTL configured in minutes.
func (j JWTConfig) ResetTokenTTL() time.Duration {
	if j.ResetTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ResetTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VRUKSHA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VRUKSHA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VRUKSHA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VRUKSHA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VRUKSHA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	OTPWindow       time.Duration `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_OTP_WINDOW" default:"5m"`
	OTPEmailLimit   int           `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"3"`
	OTPIPLimit      int           `envconfig:"VRUKSHA_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VRUKSHA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VRUKSHA_AUTO_MIGRATE" default:"false"`
	// AllowLocalQR enables the dev-only inline SVG QR fallback when Razorpay
	// credentials are absent.
	AllowLocalQR bool `envconfig:"VRUKSHA_ALLOW_LOCAL_QR" default:"false"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"VRUKSHA_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"VRUKSHA_RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"VRUKSHA_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout   time.Duration `envconfig:"VRUKSHA_RAZORPAY_TIMEOUT" default:"10s"`
	// WebhookSecret signs inbound callbacks. When empty, webhook signature
	// verification is skipped entirely; that mode is insecure and exists only
	// for local development.
	WebhookSecret string `envconfig:"VRUKSHA_RAZORPAY_WEBHOOK_SECRET"`
}

// Configured reports whether API credentials are present.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type SMTPConfig struct {
	Host        string `envconfig:"VRUKSHA_SMTP_HOST"`
	Port        int    `envconfig:"VRUKSHA_SMTP_PORT" default:"587"`
	Username    string `envconfig:"VRUKSHA_SMTP_USERNAME"`
	Password    string `envconfig:"VRUKSHA_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"VRUKSHA_SMTP_FROM_EMAIL"`
}

type AdminConfig struct {
	// Emails receives best-effort notifications for new orders, bookings,
	// inquiries, and captured payments.
	Emails []string `envconfig:"VRUKSHA_ADMIN_EMAILS"`
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
