package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	ServerPort     string
	JWTSecret      string
	TokenTTL       time.Duration
	AdonayPassword string
	WellPassword   string
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
}

// Load reads a .env file from the working directory if one exists, then
// builds the config from the environment. Values already set in the
// process environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      requireEnv("JWT_SECRET", &errs),
		TokenTTL:       getEnvDuration("TOKEN_TTL", time.Hour, &errs),
		AdonayPassword: requireEnv("ADONAY_PASSWORD", &errs),
		WellPassword:   requireEnv("WELL_PASSWORD", &errs),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 3<<20, &errs),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		StoreDriver:    getEnv("STORE_DRIVER", StoreMemory),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "feedline"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "feedline"),
	}

	switch cfg.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.StoreDriver))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists && val != "" {
		return val
	}

	return fallback
}

func requireEnv(key string, errs *[]error) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		*errs = append(*errs, fmt.Errorf("%s is required", key))
	}
	return val
}

func getEnvInt64(key string, fallback int64, errs *[]error) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive integer, got %q", key, val))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive duration, got %q", key, val))
		return fallback
	}
	return d
}
