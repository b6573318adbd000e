package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Database struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
}

// Enabled reports whether a Postgres host was configured.
func (d Database) Enabled() bool {
	return d.Host != ""
}

func (d Database) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {"disable"}, "search_path": {d.Schema}}.Encode(),
	}
	return u.String()
}

type Poll struct {
	Interval    time.Duration
	MaxAttempts int
}

type Config struct {
	Port               string
	Environment        string
	BackendBaseURL     string
	BackendToken       string
	BackendTimeout     time.Duration
	CORSAllowedOrigins []string
	DB                 Database

	Poll        Poll
	VNPayPoll   Poll
	ZaloPayPoll Poll

	ZaloPayAppID          int
	ZaloPayMerchantUserID string

	ReconcileInterval   time.Duration
	ReconcilePendingAge time.Duration
}

func LoadConfig() (*Config, error) {
	var p parser

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		BackendBaseURL:        strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
		BackendToken:          os.Getenv("BACKEND_TOKEN"),
		BackendTimeout:        p.duration("BACKEND_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ZaloPayAppID:          p.integer("ZALOPAY_APP_ID", 2553),
		ZaloPayMerchantUserID: getEnv("ZALOPAY_MERCHANT_USER_ID", "hotel-booking"),
		ReconcileInterval:     p.duration("RECONCILE_INTERVAL", time.Minute),
		ReconcilePendingAge:   p.duration("RECONCILE_PENDING_AGE", 5*time.Minute),
		DB: Database{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Database: os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),
		},
	}

	cfg.Poll = Poll{
		Interval:    p.duration("PAYMENT_POLL_INTERVAL", 3*time.Second),
		MaxAttempts: p.integer("PAYMENT_POLL_MAX_ATTEMPTS", 5),
	}
	cfg.VNPayPoll = Poll{
		Interval:    p.duration("VNPAY_POLL_INTERVAL", cfg.Poll.Interval),
		MaxAttempts: p.integer("VNPAY_POLL_MAX_ATTEMPTS", cfg.Poll.MaxAttempts),
	}
	cfg.ZaloPayPoll = Poll{
		Interval:    p.duration("ZALOPAY_POLL_INTERVAL", cfg.Poll.Interval),
		MaxAttempts: p.integer("ZALOPAY_POLL_MAX_ATTEMPTS", cfg.Poll.MaxAttempts),
	}

	if p.err != nil {
		return nil, p.err
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}
	for _, poll := range []Poll{cfg.Poll, cfg.VNPayPoll, cfg.ZaloPayPoll} {
		if poll.Interval <= 0 || poll.MaxAttempts < 1 {
			return nil, fmt.Errorf("poll interval and attempts must be positive")
		}
	}
	if cfg.DB.Enabled() && (cfg.DB.Username == "" || cfg.DB.Database == "") {
		return nil, fmt.Errorf("BLUEPRINT_DB_USERNAME and BLUEPRINT_DB_DATABASE are required when BLUEPRINT_DB_HOST is set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parser keeps the first conversion error so LoadConfig can report it once.
type parser struct {
	err error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
