package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	// Document store
	DatabaseURL string
	TablePrefix string

	// Search index
	ElasticsearchURLs     []string
	ElasticsearchUsername string
	ElasticsearchPassword string
	ElasticsearchRefresh  string // refresh policy of index writes, empty = server default
	IndexPrefix           string

	// Blob store
	AWSRegion          string
	S3Endpoint         string // set for S3-compatible servers
	S3FileBucket       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	AnalysisURL string // content analysis service, empty disables analysis
	JWKSURL     string

	ReconcileInterval time.Duration // 0 disables the scheduled reconcile
	BulkChunkSize     int

	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getPrefix("TABLE_PREFIX", env),

		ElasticsearchURLs:     splitList(getEnv("ELASTICSEARCH_URLS", "")),
		ElasticsearchUsername: getEnv("ELASTICSEARCH_USERNAME", ""),
		ElasticsearchPassword: getEnv("ELASTICSEARCH_PASSWORD", ""),
		ElasticsearchRefresh:  getEnv("ELASTICSEARCH_REFRESH", ""),
		IndexPrefix:           getPrefix("INDEX_PREFIX", env),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3FileBucket:       getEnv("S3_FILE_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AnalysisURL: getEnv("ANALYSIS_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Hour),
		BulkChunkSize:     getInt("BULK_CHUNK_SIZE", 500),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
}

// IsDev reports whether the server runs in the dev environment
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getPrefix returns the table or index prefix for the environment.
// The variable named by key overrides the default.
func getPrefix(key, env string) string {
	if prefix := os.Getenv(key); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getDuration parses a Go duration. "0" disables, anything unparsable falls back.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "0" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
