package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	domainconfig "decisionmap/domain/config"
)

// LLM providers
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderMock     = "mock"
	ProviderDisabled = "disabled"
)

// History backends
const (
	HistoryNone     = "none"
	HistorySQLite   = "sqlite"
	HistoryDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	ConfigFile    string

	// AWS configuration
	AWSRegion           string
	EventBusName        string
	CloudWatchNamespace string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Model configuration
	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string
	LLMTimeout       time.Duration
	BreakerFailures  int
	BreakerOpenDelay time.Duration

	// Grounding thresholds, overridable from ConfigFile
	Grounding GroundingConfig

	// Rewrite cache
	CacheTTL        int // seconds
	CacheMaxEntries int
	ReportCacheTTL  int // seconds

	// History
	HistoryBackend string
	SQLitePath     string
	HistoryTable   string

	// Rate limiting, per client
	RateLimitPerMinute int
	RateLimitBurst     int

	// Share tokens are signed when set
	ShareSecret string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableEvents  bool
	EnableCORS    bool
}

// GroundingConfig is the hot-reloadable part of the rewrite engine tuning
type GroundingConfig struct {
	OverlapThreshold   float64 `yaml:"overlapThreshold"`
	RelevanceThreshold float64 `yaml:"relevanceThreshold"`
	RewriteBatchSize   int     `yaml:"rewriteBatchSize"`
	MinDetailLength    int     `yaml:"minDetailLength"`
}

// LoadConfig loads configuration from environment variables, then applies
// the YAML overlay named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")
	defaults := domainconfig.LoadDomainConfig(environment)
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   environment,
		ConfigFile:    getEnv("CONFIG_FILE", ""),

		AWSRegion:           getEnv("AWS_REGION", "eu-central-1"),
		EventBusName:        getEnv("EVENT_BUS_NAME", "decisionmap-events"),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "DecisionMap"),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		LLMProvider:      getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini-2024-07-18"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 14*time.Second),
		BreakerFailures:  getEnvInt("LLM_BREAKER_FAILURES", 5),
		BreakerOpenDelay: getEnvDuration("LLM_BREAKER_OPEN_DELAY", 30*time.Second),

		Grounding: GroundingConfig{
			OverlapThreshold:   getEnvFloat("GROUNDING_OVERLAP_THRESHOLD", defaults.OverlapThreshold),
			RelevanceThreshold: getEnvFloat("GROUNDING_RELEVANCE_THRESHOLD", defaults.RelevanceThreshold),
			RewriteBatchSize:   getEnvInt("REWRITE_BATCH_SIZE", defaults.RewriteBatchSize),
			MinDetailLength:    getEnvInt("MIN_DETAIL_LENGTH", defaults.MinDetailLength),
		},

		CacheTTL:        getEnvInt("REWRITE_CACHE_TTL", 24*60*60),
		CacheMaxEntries: getEnvInt("REWRITE_CACHE_MAX_ENTRIES", 5000),
		ReportCacheTTL:  getEnvInt("REPORT_CACHE_TTL", 30),

		HistoryBackend: getEnv("HISTORY_BACKEND", HistoryNone),
		SQLitePath:     getEnv("SQLITE_PATH", "decisionmap.db"),
		HistoryTable:   getEnv("HISTORY_TABLE", getEnv("TABLE_NAME", "decisionmap-history")),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),

		ShareSecret: getEnv("SHARE_SECRET", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if cfg.ConfigFile != "" {
		overlay, err := LoadOverlay(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		overlay.ApplyTo(cfg)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderMock, ProviderDisabled:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.HistoryBackend {
	case HistoryNone, HistorySQLite, HistoryDynamoDB:
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}
	if c.HistoryBackend == HistoryDynamoDB && c.HistoryTable == "" {
		return fmt.Errorf("HISTORY_TABLE is required for the dynamodb backend")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}

	if c.Environment == "production" && c.ShareSecret == "" {
		return fmt.Errorf("SHARE_SECRET is required in production")
	}

	return c.DomainConfig().Validate()
}

// DomainConfig returns the environment's domain rules with the grounding
// thresholds of c applied.
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	dc.OverlapThreshold = c.Grounding.OverlapThreshold
	dc.RelevanceThreshold = c.Grounding.RelevanceThreshold
	dc.RewriteBatchSize = c.Grounding.RewriteBatchSize
	dc.MinDetailLength = c.Grounding.MinDetailLength
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("14s") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
