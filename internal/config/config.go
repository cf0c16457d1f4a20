package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver        string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	RedisHost       string
	RedisPort       string
	SessionSecret   string
	GinMode         string
	DisplayTimezone string
}

func Load() *Config {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	return &Config{
		DBDriver:        getEnv("DB_DRIVER", "mysql"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "planner"),
		DBPassword:      getEnv("DB_PASSWORD", "plannerpassword"),
		DBName:          getEnv("DB_NAME", "planner"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		SessionSecret:   getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Seoul"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
