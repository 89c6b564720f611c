package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	JWTSecret       string
	TokenTTL        time.Duration
	OTPTTL          time.Duration
	OTPMaxAttempts  int
	AllowedOrigins  []string
	RateLimitPerMin int
	RateLimitBurst  int
	NotifyProvider  string
	SummaryCacheTTL time.Duration
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = splitAndTrim(raw)
	}

	return Config{
		Port:            port,
		DatabaseURL:     os.Getenv("DB_DSN"),
		RedisAddr:       readString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        readDurationSeconds("TOKEN_TTL_SECONDS", 86400),
		OTPTTL:          readDurationSeconds("OTP_TTL_SECONDS", 600),
		OTPMaxAttempts:  readInt("OTP_MAX_ATTEMPTS", 5),
		AllowedOrigins:  origins,
		RateLimitPerMin: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:  readInt("RATE_LIMIT_BURST", 30),
		NotifyProvider:  readString("NOTIFY_PROVIDER", "log"),
		SummaryCacheTTL: readDurationSeconds("SUMMARY_CACHE_TTL_SECONDS", 60),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        readString("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
	}
}

func readString(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
