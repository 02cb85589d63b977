package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIPort     string
	FrontendURL string
	JWTKey      []byte
	JWTExp      time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBMaxConns int
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NotificationQueueName string
	RealtimeChannelPrefix string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	MaxUploadBytes int64
	LogLevel       string
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:               getEnv("API_PORT", "5000"),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:3000"),
		JWTKey:                []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 7*24)) * time.Hour,
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "user"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "kaab_hub"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		DBMaxConns:            getEnvAsInt("DB_MAX_CONNS", 25),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		NotificationQueueName: getEnv("NOTIFICATION_QUEUE_NAME", "notification_jobs_queue"),
		RealtimeChannelPrefix: getEnv("REALTIME_CHANNEL_PREFIX", "kaab:question:"),
		S3Endpoint:            getEnv("S3_ENDPOINT", ""),
		S3Region:              getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:           getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:           getEnv("S3_SECRET_KEY", ""),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		S3PublicURL:           strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		MaxUploadBytes:        int64(getEnvAsInt("MAX_UPLOAD_MB", 5)) << 20,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)
	return cfg
}

// StorageEnabled reports whether profile picture uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
