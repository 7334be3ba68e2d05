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
	AppEnv string
	Port   int

	// Postgres
	DBDSN string

	// Redis
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Venue tuning
	MaxSeats           int
	ServiceTimePerSeat time.Duration
	CheckinExpiry      time.Duration
	MaxPartyNameLength int

	// Cookie sessions
	SessionKey   string
	CookieMaxAge int // seconds, handed straight to the cookie store

	// Job workers
	JobPollInterval time.Duration

	// Rate limit
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getInt("PORT", 8080)

	// --- Postgres: prefer DATABASE_URL if present, else build from DB_*
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL != "" {
		cfg.DBDSN = dbURL
	} else {
		host := getEnv("DB_HOST", "")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "")
		pass := getEnv("DB_PASSWORD", "")
		name := getEnv("DB_NAME", "")
		sslmode := getEnv("DB_SSLMODE", "disable")
		cfg.DBDSN = buildPostgresURL(host, port, user, pass, name, sslmode)
	}

	// --- Redis
	cfg.RedisAddr = getEnv("REDIS_HOST", "127.0.0.1") + ":" + getEnv("REDIS_PORT", "6379")
	cfg.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	// --- Venue tuning
	cfg.MaxSeats = getInt("MAX_SEATS", 10)
	cfg.ServiceTimePerSeat = getSeconds("SERVICE_TIME_SECONDS", 15)
	cfg.CheckinExpiry = getSeconds("CHECKIN_EXPIRY_SECONDS", 60)
	cfg.MaxPartyNameLength = getInt("MAX_PARTY_NAME_LENGTH", 30)

	// --- Sessions
	cfg.SessionKey = getEnv("SESSION_KEY", "")
	cfg.CookieMaxAge = getInt("COOKIE_MAX_AGE_SECONDS", 86400)

	// --- Job workers
	cfg.JobPollInterval = getDuration("JOB_POLL_INTERVAL", 500*time.Millisecond)

	// --- Rate limit
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_REQUESTS_LIMIT", 60)
	cfg.RLWindow = time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second

	// --- Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	// Write timeout stays 0: SSE responses are open-ended.
	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 0)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	// --- Validation (fail fast)
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("missing database config: provide DATABASE_URL or DB_HOST/DB_USER/DB_NAME")
	}
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("missing SESSION_KEY")
	}
	if cfg.MaxSeats < 1 {
		return nil, fmt.Errorf("MAX_SEATS must be >= 1")
	}
	if cfg.MaxPartyNameLength < 1 || cfg.MaxPartyNameLength > 30 {
		return nil, fmt.Errorf("MAX_PARTY_NAME_LENGTH must be in 1..30 (the name column is VARCHAR(30))")
	}
	if cfg.ServiceTimePerSeat <= 0 {
		return nil, fmt.Errorf("SERVICE_TIME_SECONDS must be > 0")
	}
	if cfg.CheckinExpiry <= 0 {
		return nil, fmt.Errorf("CHECKIN_EXPIRY_SECONDS must be > 0")
	}

	return cfg, nil
}

// buildPostgresURL builds a safe postgres URL DSN (handles special characters).
func buildPostgresURL(host, port, user, pass, name, sslmode string) string {
	if strings.TrimSpace(host) == "" || strings.TrimSpace(user) == "" || strings.TrimSpace(name) == "" {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   strings.TrimSpace(host) + ":" + strings.TrimSpace(port),
		Path:   "/" + strings.TrimPrefix(strings.TrimSpace(name), "/"),
	}
	if pass != "" {
		u.User = url.UserPassword(strings.TrimSpace(user), pass)
	} else {
		u.User = url.User(strings.TrimSpace(user))
	}
	q := u.Query()
	q.Set("sslmode", strings.TrimSpace(sslmode))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func getSeconds(key string, def int) time.Duration {
	return time.Duration(getInt(key, def)) * time.Second
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
