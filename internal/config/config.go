package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// App
	Env         string // dev / staging / prod
	AppName     string
	FrontendURL string
	APIBaseURL  string // roots signed verification links

	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Auth / security
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	URLSigningKey  string

	// Signed link / code lifetimes
	PasswordResetTTL time.Duration
	VerifyEmailTTL   time.Duration
	OTPTTL           time.Duration

	// Infrastructure
	DBAddr         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RabbitURL      string
	RabbitExchange string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthCallbackURL   string
	OAuthStateTTL      time.Duration

	// SMTP (notifier worker)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPInsecure bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		AppName:        getEnv("APP_NAME", "Career Compass"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer:      getEnv("JWT_ISSUER", "careercompass"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "compass.notifications"),
	}

	// Required values. The service cannot operate without its signing keys
	// and backing stores, so fail fast instead of starting half-configured.
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.URLSigningKey = os.Getenv("URL_SIGNING_KEY")
	if cfg.URLSigningKey == "" {
		return nil, fmt.Errorf("missing required env var: URL_SIGNING_KEY")
	}
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing required env var: REDIS_ADDR")
	}
	cfg.RabbitURL = os.Getenv("RABBIT_URL")
	if cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing required env var: RABBIT_URL")
	}
	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	if cfg.FrontendURL == "" {
		return nil, fmt.Errorf("missing required env var: FRONTEND_URL")
	}

	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.FrontendURL)

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	db, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = db

	// Optional with defaults.
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	// Reset and verification links expire after 60 minutes; the template copy
	// states the same window.
	if cfg.PasswordResetTTL, err = getDuration("PASSWORD_RESET_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.VerifyEmailTTL, err = getDuration("VERIFY_EMAIL_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OAuthStateTTL, err = getDuration("OAUTH_STATE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	// OAuth is optional; social login routes report the provider as
	// unconfigured when these are absent.
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.OAuthCallbackURL = getEnv("OAUTH_CALLBACK_URL", cfg.FrontendURL+"/auth/social/google/callback")

	// SMTP is only required by the notifier worker; validated there.
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = getEnv("SMTP_FROM", "no-reply@careercompass.app")
	cfg.SMTPInsecure = os.Getenv("SMTP_INSECURE") == "true"

	return cfg, nil
}

// ValidateSMTP is called by the notifier worker, which cannot run without a
// mail transport.
func (c *Config) ValidateSMTP() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("missing required env var: SMTP_HOST")
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
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return n, nil
}
