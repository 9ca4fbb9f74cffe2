package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database (profile store)
	DatabaseURL string

	// Redis (matching queue)
	RedisURL string

	// Matching queue
	QueueTTL        time.Duration // 기본 대기 TTL (urgency에 따라 스케일)
	QueueTTLCeiling time.Duration // TTL 상한
	StoreTimeout    time.Duration // 큐 스토어 호출 타임아웃

	// Matchmaking
	AcceptanceThreshold float64 // 매칭 수락 최소 점수
	MaxMatchRetries     int     // stale 후보 재시도 횟수

	// Cleanup
	CleanupInterval time.Duration

	// CORS
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		QueueTTL:            parseDuration(getEnv("QUEUE_TTL", "15m"), 15*time.Minute),
		QueueTTLCeiling:     parseDuration(getEnv("QUEUE_TTL_CEILING", "30m"), 30*time.Minute),
		StoreTimeout:        parseDuration(getEnv("STORE_TIMEOUT", "500ms"), 500*time.Millisecond),
		AcceptanceThreshold: parseFloat(getEnv("ACCEPTANCE_THRESHOLD", "0.3"), 0.3),
		MaxMatchRetries:     parseInt(getEnv("MAX_MATCH_RETRIES", "3"), 3),
		CleanupInterval:     parseDuration(getEnv("CLEANUP_INTERVAL", "60s"), 60*time.Second),
		CORSAllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseFloat(s string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
