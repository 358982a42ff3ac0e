package model

import "time"

// Config is the complete needscore configuration.
// Precedence: CLI flags > NEEDSCORE_* env > config file > DefaultConfig.
type Config struct {
	Paths        PathsConfig       `yaml:"paths" mapstructure:"paths"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Source       SourceConfig      `yaml:"source" mapstructure:"source"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
	Report       ReportConfig      `yaml:"report" mapstructure:"report"`
}

// PathsConfig holds default input locations for evaluate/analyze
type PathsConfig struct {
	Predictions  string   `yaml:"predictions" mapstructure:"predictions"`
	GroundTruths []string `yaml:"ground_truths" mapstructure:"ground_truths"`
}

// HTTPConfig configures outbound requests to the article gateway and category pages
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SourceConfig describes the article gateway
type SourceConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	DataSelect   string `yaml:"data_select" mapstructure:"data_select"`
	MaxSentences int    `yaml:"max_sentences" mapstructure:"max_sentences"`
}

// LLMConfig configures the annotating model
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai (also vLLM) or ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float32 `yaml:"top_p" mapstructure:"top_p"`
	Seed        int     `yaml:"seed" mapstructure:"seed"`
	Mode        string  `yaml:"mode" mapstructure:"mode"` // combined or separate
}

// CacheConfig configures the fetched-article cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch annotation
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig limits requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LogConfig configures zerolog output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// ReportConfig holds analysis defaults
type ReportConfig struct {
	Top    int    `yaml:"top" mapstructure:"top"`
	Pairs  int    `yaml:"pairs" mapstructure:"pairs"`
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Predictions:  "data/predictions.json",
			GroundTruths: []string{"scores_annotator_a.json", "scores_annotator_b.json"},
		},
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "needscore/0.1 (+https://github.com/ppiankov/needscore)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Source: SourceConfig{
			BaseURL:      "https://gw.vnexpress.net",
			DataSelect:   "article_id,article_type,title,share_url,thumbnail_url,publish_time,lead,privacy,original_cate,article_category",
			MaxSentences: 8,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "Qwen/Qwen3-14B-AWQ",
			BaseURL:     "http://localhost:8808/v1",
			Timeout:     120,
			MaxTokens:   2048,
			Temperature: 0.1,
			TopP:        0.95,
			Seed:        4545,
			Mode:        "combined",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".needscore-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			Top:    5,
			Pairs:  5,
			OutDir: "reports",
		},
	}
}
