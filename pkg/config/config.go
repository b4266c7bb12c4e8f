package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	ModelClient ModelClientConfig
	Notifier    NotifierConfig
}

type AppConfig struct {
	Name              string
	Version           string
	Environment       string
	AppCredentialsKey string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type ModelClientConfig struct {
	TimeoutSeconds int
}

type NotifierConfig struct {
	NotifierWebhookUrl        string
	NotifierBasicAuthUsername string
	NotifierBasicAuthPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		return nil, errors.New("missing redis database")
	}

	modelClientTimeout, err := strconv.Atoi(getEnv("MODEL_CLIENT_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, errors.New("invalid model client timeout")
	}

	cfg := &Config{
		App: AppConfig{
			Name:              getEnv("APP_NAME", "Model Pilot API"),
			Version:           getEnv("APP_VERSION", "1.0.0"),
			Environment:       getEnv("APP_ENV", "development"),
			AppCredentialsKey: getEnv("APP_CREDENTIALS_KEY", ""),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "model_pilot_api"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		ModelClient: ModelClientConfig{
			TimeoutSeconds: modelClientTimeout,
		},
		Notifier: NotifierConfig{
			NotifierWebhookUrl:        getEnv("NOTIFIER_WEBHOOK_URL", ""),
			NotifierBasicAuthUsername: getEnv("NOTIFIER_BASIC_AUTH_USERNAME", ""),
			NotifierBasicAuthPassword: getEnv("NOTIFIER_BASIC_AUTH_PASSWORD", ""),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.App.AppCredentialsKey == "" {
		return nil, errors.New("missing app credentials key")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
