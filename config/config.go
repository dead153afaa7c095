package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/standings-engine/payouts"
	"github.com/Dosada05/standings-engine/storage"
)

const (
	defaultServerPort         = 8080
	defaultSweepInterval      = 30 * time.Second
	defaultSweepConcurrency   = 4
	defaultSweepBatchSize     = 50
	defaultDBConnectTimeout   = 5 * time.Second
	defaultCORSAllowedOrigins = "*"
)

type Config struct {
	DatabaseURL      string
	DBConnectTimeout time.Duration
	JWTSecretKey     string
	ServerPort       int

	SweepInterval    time.Duration
	SweepConcurrency int
	SweepBatchSize   int

	// PayoutTable holds basis-point rows, one per supported number of paid places.
	PayoutTable [][]int

	R2 storage.CloudflareR2Config

	CORSAllowedOrigins []string
	LogLevel           string
}

// Load reads configuration from the environment. A .env file is loaded first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	connectTimeout, err := durationEnv("DB_CONNECT_TIMEOUT", defaultDBConnectTimeout)
	if err != nil {
		return nil, err
	}

	interval, err := durationEnv("STANDINGS_SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("STANDINGS_SWEEP_INTERVAL must not be negative, got %s", interval)
	}

	concurrency, err := intEnv("STANDINGS_SWEEP_CONCURRENCY", defaultSweepConcurrency)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("STANDINGS_SWEEP_CONCURRENCY must be at least 1, got %d", concurrency)
	}

	batch, err := intEnv("STANDINGS_SWEEP_BATCH_SIZE", defaultSweepBatchSize)
	if err != nil {
		return nil, err
	}
	if batch < 1 {
		return nil, fmt.Errorf("STANDINGS_SWEEP_BATCH_SIZE must be at least 1, got %d", batch)
	}

	table := payouts.DefaultTable()
	if raw := strings.TrimSpace(os.Getenv("PAYOUT_TABLE")); raw != "" {
		table, err = payouts.ParseTable(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYOUT_TABLE: %w", err)
		}
		if _, err := payouts.NewTableSuggester(table); err != nil {
			return nil, fmt.Errorf("invalid PAYOUT_TABLE: %w", err)
		}
	}

	r2 := storage.CloudflareR2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	if r2.Enabled() {
		if err := r2.Validate(); err != nil {
			return nil, err
		}
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{defaultCORSAllowedOrigins}
	}

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DatabaseURL:        dbURL,
		DBConnectTimeout:   connectTimeout,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		SweepInterval:      interval,
		SweepConcurrency:   concurrency,
		SweepBatchSize:     batch,
		PayoutTable:        table,
		R2:                 r2,
		CORSAllowedOrigins: origins,
		LogLevel:           logLevel,
	}, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
