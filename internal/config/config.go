package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds application configuration from environment.
type Config struct {
	Env           string
	HTTPPort      string
	DatabaseURL   string
	DBPoolSize    int
	RedisURL      string
	RedisPoolSize int
	CacheTTL      time.Duration
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaParts    int
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	CORSOrigins   []string
}

// Production reports whether the app runs in production mode. Error
// responses include detail only when it is false.
func (c *Config) Production() bool {
	return c.Env == "production"
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			Env:           getEnv("APP_ENV", "development"),
			HTTPPort:      getEnv("HTTP_PORT", "8080"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			DBPoolSize:    getIntEnv("DB_POOL_SIZE", 25),
			RedisURL:      os.Getenv("REDIS_URL"),
			RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 50),
			CacheTTL:      time.Duration(getIntEnv("CACHE_TTL_SEC", 60)) * time.Second,
			KafkaBrokers:  getSliceEnv("KAFKA_BROKERS", ""),
			KafkaTopic:    getEnv("KAFKA_ACTIVITY_TOPIC", "item-activity"),
			KafkaParts:    getIntEnv("KAFKA_PARTITIONS", 4),
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      time.Duration(getIntEnv("TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,
			BcryptCost:    getIntEnv("BCRYPT_COST", 10),
			CORSOrigins:   getSliceEnv("CORS_ORIGINS", "http://localhost:3000"),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key, defaultVal string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
