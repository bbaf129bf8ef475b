package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration. It is built once in main and
// passed down explicitly; nothing in the codebase reads configuration from
// ambient globals.
type Config struct {
	// Server settings
	Port             int      `yaml:"port"`
	Debug            bool     `yaml:"debug"`
	LogFile          string   `yaml:"log_file"`
	IsProd           bool     `yaml:"is_prod"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`

	// Generation settings
	NumVariants          int  `yaml:"num_variants"`
	GenerationTimeoutSec int  `yaml:"generation_timeout_sec"`
	MockResponses        bool `yaml:"mock_responses"`
	MockChunkSize        int  `yaml:"mock_chunk_size"`
	MockChunkDelayMs     int  `yaml:"mock_chunk_delay_ms"`

	// Server-side provider credentials (fallbacks when the client does not
	// supply its own keys in the request payload).
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	ReplicateAPIKey string `yaml:"replicate_api_key"`

	// WebSocket hygiene
	WSMaxPayloadBytes int `yaml:"ws_max_payload_bytes"`

	// Rate limiting
	RateLimitEnabled bool `yaml:"rate_limit_enabled"`
	RateLimitRPS     int  `yaml:"rate_limit_rps"`
	RateLimitBurst   int  `yaml:"rate_limit_burst"`

	// Artifact storage
	StorageBackend string `yaml:"storage_backend"`
	StorageBaseDir string `yaml:"storage_base_dir"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisPrefix    string `yaml:"redis_prefix"`
}

// Default returns the built-in defaults, matching a bare local deployment.
func Default() Config {
	return Config{
		Port:                 7001,
		NumVariants:          1,
		GenerationTimeoutSec: 600,
		MockChunkSize:        40,
		MockChunkDelayMs:     10,
		WSMaxPayloadBytes:    8_000_000,
		RateLimitRPS:         10,
		RateLimitBurst:       20,
		StorageBackend:       "file",
		StorageBaseDir:       "./run_logs",
		RedisPrefix:          "s2c:",
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envInt(&c.Port, "PORT")
	envBool(&c.Debug, "DEBUG")
	envStr(&c.LogFile, "LOG_FILE")
	envBool(&c.IsProd, "IS_PROD")
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.CORSAllowOrigins = splitOrigins(v)
	}

	envInt(&c.NumVariants, "NUM_VARIANTS")
	envInt(&c.GenerationTimeoutSec, "GENERATION_TIMEOUT_SEC")
	envBool(&c.MockResponses, "MOCK")

	envStr(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	envStr(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	envStr(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envStr(&c.GeminiAPIKey, "GEMINI_API_KEY")
	envStr(&c.ReplicateAPIKey, "REPLICATE_API_KEY")

	envInt(&c.WSMaxPayloadBytes, "WS_MAX_PAYLOAD_BYTES")

	envBool(&c.RateLimitEnabled, "RATE_LIMIT_ENABLED")
	envInt(&c.RateLimitRPS, "RATE_LIMIT_RPS")
	envInt(&c.RateLimitBurst, "RATE_LIMIT_BURST")

	envStr(&c.StorageBackend, "STORAGE_BACKEND")
	envStr(&c.StorageBaseDir, "STORAGE_BASE_DIR")
	envStr(&c.RedisAddr, "REDIS_ADDR")
	envStr(&c.RedisPassword, "REDIS_PASSWORD")
	envInt(&c.RedisDB, "REDIS_DB")
	envStr(&c.RedisPrefix, "REDIS_PREFIX")
}

// Validate rejects configurations the rest of the code cannot run with.
func (c *Config) Validate() error {
	if c.NumVariants < 1 {
		return fmt.Errorf("num_variants must be >= 1, got %d", c.NumVariants)
	}
	if c.WSMaxPayloadBytes < 1024 {
		return fmt.Errorf("ws_max_payload_bytes too small: %d", c.WSMaxPayloadBytes)
	}
	if c.GenerationTimeoutSec < 1 {
		return fmt.Errorf("generation_timeout_sec must be >= 1, got %d", c.GenerationTimeoutSec)
	}
	switch c.StorageBackend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("unknown storage_backend: %q", c.StorageBackend)
	}
	return nil
}

func envStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
