package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	Redis     RedisConfig     `json:"redis"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Chain     ChainConfig     `json:"chain"`
	Cache     CacheConfig     `json:"cache"`
	RateGate  RateGateConfig  `json:"rate_gate"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Wallet    WalletConfig    `json:"wallet"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoDBConfig holds MongoDB connection configuration for the remote
// settings store and API-key collection
type MongoDBConfig struct {
	URI                string        `json:"uri"`
	Database           string        `json:"database"`
	APIKeyCollection   string        `json:"api_key_collection"`
	ProfileCollection  string        `json:"profile_collection"`
	WalletCollection   string        `json:"wallet_collection"`
	ConnectTimeout     time.Duration `json:"connect_timeout"`
	OperationTimeout   time.Duration `json:"operation_timeout"`
	MaxPoolSize        uint64        `json:"max_pool_size"`
}

// RedisConfig holds redis connection configuration for the local stores
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// UpstreamConfig holds the rate-limited upstream API configuration
type UpstreamConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"-"`
	Timeout time.Duration `json:"timeout"`
}

// ChainConfig holds the EVM node used by the native-balance endpoint
type ChainConfig struct {
	RPCEndpoint string        `json:"rpc_endpoint"`
	Timeout     time.Duration `json:"timeout"`
}

// CacheConfig holds proxy cache configuration
type CacheConfig struct {
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// RateGateConfig holds the upstream call-spacing configuration
type RateGateConfig struct {
	MinInterval time.Duration `json:"min_interval"`
}

// RateLimitConfig holds inbound per-IP rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           `json:"requests_per_window"`
	WindowSize        time.Duration `json:"window_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// WalletConfig holds wallet session configuration
type WalletConfig struct {
	SessionTTL time.Duration `json:"session_ttl"`
	SessionKey string        `json:"session_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MongoDB: MongoDBConfig{
			URI:               getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:          getEnv("MONGODB_DATABASE", "cryptopath"),
			APIKeyCollection:  getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			ProfileCollection: getEnv("MONGODB_PROFILE_COLLECTION", "profiles"),
			WalletCollection:  getEnv("MONGODB_WALLET_COLLECTION", "user_wallets"),
			ConnectTimeout:    getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			OperationTimeout:  getDurationEnv("MONGODB_OPERATION_TIMEOUT", 5*time.Second),
			MaxPoolSize:       getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_BASE_URL", "https://api.etherscan.io/api"),
			APIKey:  getEnv("UPSTREAM_API_KEY", ""),
			Timeout: getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Chain: ChainConfig{
			RPCEndpoint: getEnv("CHAIN_RPC_ENDPOINT", "https://ethereum-rpc.publicnode.com"),
			Timeout:     getDurationEnv("CHAIN_RPC_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			TTL:             getDurationEnv("CACHE_TTL", 5*time.Second),
			CleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 60*time.Second),
		},
		RateGate: RateGateConfig{
			MinInterval: getDurationEnv("RATE_GATE_MIN_INTERVAL", 200*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getIntEnv("RATE_LIMIT_REQUESTS_PER_WINDOW", 60),
			WindowSize:        getDurationEnv("RATE_LIMIT_WINDOW_SIZE", time.Minute),
			CleanupInterval:   getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Wallet: WalletConfig{
			SessionTTL: getDurationEnv("WALLET_SESSION_TTL", 24*time.Hour),
			SessionKey: getEnv("WALLET_SESSION_KEY", "wallet:current"),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}
