package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string
	//Auth / Security
	SecretKey   string
	SessionTTL  time.Duration
	BcryptCost  int
	FrontendURL string

	// One-time token flows (email verify / password reset)
	VerificationTTL time.Duration
	ResetTTL        time.Duration

	// Infrastructure
	DBAddr          string
	DBMigrate       bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	AccountCacheTTL time.Duration

	// Notifications: log / smtp / rabbitmq
	MailTransport  string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPFrom       string
	SMTPInsecure   bool
	SMTPTimeout    time.Duration
	RabbitURL      string
	RabbitExchange string

	// Media: noop / s3
	MediaDriver        string
	S3Endpoint         string
	S3Region           string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3Bucket           string
	S3UsePathStyle     bool
	MediaPublicBaseURL string
	MaxUploadSize      int64

	// Opt-in rate limit on credential endpoints, per client IP
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// IsDev reports whether the service runs in local development mode.
func (c *Config) IsDev() bool { return c.Env == "dev" }

func Load() (*Config, error) {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		MailTransport:  strings.ToLower(getEnv("MAIL_TRANSPORT", "log")),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPFrom:       getEnv("SMTP_FROM", "no-reply@tasterail.local"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "user.events"),

		MediaDriver:        strings.ToLower(getEnv("MEDIA_DRIVER", "noop")),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Bucket:           getEnv("S3_BUCKET", "avatars"),
		MediaPublicBaseURL: strings.TrimRight(os.Getenv("MEDIA_PUBLIC_BASE_URL"), "/"),
	}

	// required values
	cfg.SecretKey = os.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing required env var: SECRET_KEY")
	}
	cfg.FrontendURL = strings.TrimRight(os.Getenv("FRONTEND_URL"), "/")
	if cfg.FrontendURL == "" {
		return nil, fmt.Errorf("missing required env var: FRONTEND_URL")
	}

	// In dev an empty DB_ADDR selects the in-memory store.
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" && !cfg.IsDev() {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}
	if cfg.DBAddr != "" {
		if err := validatePostgresDSN(cfg.DBAddr); err != nil {
			return nil, err
		}
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.VerificationTTL, err = getDuration("VERIFY_CODE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ResetTTL, err = getDuration("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AccountCacheTTL, err = getDuration("ACCOUNT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SMTPTimeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_SIZE", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadSize = int64(maxUpload)
	if cfg.DBMigrate, err = getBool("DB_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.SMTPInsecure, err = getBool("SMTP_INSECURE", false); err != nil {
		return nil, err
	}
	if cfg.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", true); err != nil {
		return nil, err
	}

	if cfg.RLEnabled, err = getBool("RATE_LIMIT_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.RLLimit, err = getInt("RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.RLWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	switch cfg.MailTransport {
	case "log":
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=smtp requires SMTP_HOST")
		}
	case "rabbitmq":
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=rabbitmq requires RABBIT_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported MAIL_TRANSPORT: %q", cfg.MailTransport)
	}

	switch cfg.MediaDriver {
	case "noop":
	case "s3":
		if cfg.S3Endpoint == "" || cfg.MediaPublicBaseURL == "" {
			return nil, fmt.Errorf("MEDIA_DRIVER=s3 requires S3_ENDPOINT and MEDIA_PUBLIC_BASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_DRIVER: %q", cfg.MediaDriver)
	}

	//Timeout values are optional and have a default value if not
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultShutdownTimeout bounds the graceful drain of the API server.
const DefaultShutdownTimeout = 15 * time.Second

// ShutdownTimeout reads HTTP_SHUTDOWN_TIMEOUT independently of Load. An
// invalid or non-positive value returns the default together with an error.
func ShutdownTimeout() (time.Duration, error) {
	d, err := getDuration("HTTP_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	if err != nil || d <= 0 {
		if err == nil {
			err = fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %s", d)
		}
		return DefaultShutdownTimeout, err
	}
	return d, nil
}

// validatePostgresDSN accepts postgres:// or postgresql:// URLs naming a database.
func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid DB_ADDR: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid DB_ADDR scheme %q: want postgres", u.Scheme)
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("invalid DB_ADDR: missing database name")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
