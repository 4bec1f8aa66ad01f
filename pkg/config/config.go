package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultMongoURL is used when MONGO_URL is unset
const DefaultMongoURL = "mongodb://localhost:27017/ikul_cars_db"

// Config holds the settings shared by every entrypoint
type Config struct {
	AppEnv       string
	StoreDriver  string
	MongoURL     string
	DatabaseURL  string
	RedisAddr    string
	ServerPort   int
	LogLevel     string
	AllowOrigins []string
}

// Load reads the configuration from the environment, applying defaults for
// unset variables. An unknown STORE_DRIVER or non-numeric PORT is an error.
func Load() (*Config, error) {
	storeDriver := strings.ToLower(getEnv("STORE_DRIVER", DriverMongo))
	switch storeDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s, %s or %s", storeDriver, DriverMongo, DriverPostgres, DriverMemory)
	}

	serverPort, err := strconv.Atoi(getEnv("PORT", "8001"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(getEnv("CORS_ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		StoreDriver:  storeDriver,
		MongoURL:     getEnv("MONGO_URL", DefaultMongoURL),
		DatabaseURL:  postgresURL(),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		ServerPort:   serverPort,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		AllowOrigins: origins,
	}, nil
}

// postgresURL prefers DATABASE_URL and otherwise assembles one from the
// DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME components.
func postgresURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DB_USER", "postgres"), getEnv("DB_PASSWORD", "postgres")),
		Host:     getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:     "/" + getEnv("DB_NAME", "ikul_cars_db"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
