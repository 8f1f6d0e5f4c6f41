package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Storage   StorageConfig
	Ingestion IngestionConfig
	Server    ServerConfig
}

// StorageConfig holds storage-related configuration
type StorageConfig struct {
	Type           string // "mongodb", "dynamodb", "postgresql"
	MongoDBURI     string
	Database       string
	CollectionName string
	Region         string // For AWS DynamoDB
	TableName      string
	Endpoint       string // Custom endpoint for local testing
	PostgresURI    string
}

// IngestionConfig holds ingestion-related configuration
type IngestionConfig struct {
	APIEndpoint string
	PageSize    int
	PageDelay   time.Duration
	SinceCutoff int64 // Unix seconds; 0 means no lower bound on the window
	Timeout     time.Duration
	Username    string        // default username for the periodic mode
	Interval    time.Duration // 0 disables periodic ingestion
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// Load loads configuration from environment variables with defaults.
// A missing MongoDB URI is not an error here: the storage layer connects
// lazily and reports it on first use.
func Load() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			Type:           getEnv("STORAGE_TYPE", "mongodb"),
			MongoDBURI:     getEnv("MONGODB_URI", ""),
			Database:       getEnv("DB_NAME", "leetcode-tracker"),
			CollectionName: getEnv("COLLECTION_NAME", "submissions"),
			Region:         getEnv("AWS_REGION", "us-west-2"),
			TableName:      getEnv("TABLE_NAME", "submissions"),
			Endpoint:       getEnv("DYNAMODB_ENDPOINT", ""), // For local DynamoDB
			PostgresURI:    getEnv("POSTGRES_URI", ""),
		},
		Ingestion: IngestionConfig{
			APIEndpoint: getEnv("LEETCODE_ENDPOINT", "https://leetcode.com/graphql/"),
			PageSize:    getEnvInt("PAGE_SIZE", 20),
			PageDelay:   getEnvDuration("PAGE_DELAY", time.Second),
			SinceCutoff: getEnvInt64("SINCE_CUTOFF", 0),
			Timeout:     getEnvDuration("API_TIMEOUT", 30*time.Second),
			Username:    getEnv("LEETCODE_USERNAME", ""),
			Interval:    getEnvDuration("INGESTION_INTERVAL", 0),
		},
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
