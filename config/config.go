package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultUploadMaxBytes = 5 << 20

type Config struct {
	Port      string
	AppEnv    string
	GinMode   string
	LogLevel  string
	LogFormat string

	Mongo   MongoConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Storage StorageConfig

	CORSOrigins []string
}

type MongoConfig struct {
	URI      string
	Database string
}

type AuthConfig struct {
	FirebaseProjectID string
	FirebaseCertsURL  string
	JWTSecret         string
	InsecureDevAuth   bool
	AdminEmails       []string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type StorageConfig struct {
	Backend        string
	PublicURL      string
	UploadMaxBytes int64
	GCS            GCSConfig
	Minio          MinioConfig
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() Config {
	return Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		GinMode:   getEnv("GIN_MODE", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "issuesdb"),
		},
		Auth: AuthConfig{
			FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
			FirebaseCertsURL:  getEnv("FIREBASE_CERTS_URL", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			InsecureDevAuth:   getEnvBool("INSECURE_DEV_AUTH", false),
			AdminEmails:       getEnvList("ADMIN_EMAILS"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", "")),
			PublicURL:      strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
			UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", defaultUploadMaxBytes)),
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			},
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		CORSOrigins: getEnvList("CORS_ORIGINS"),
	}
}

// Production reports whether APP_ENV names a production deployment.
func (c Config) Production() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
