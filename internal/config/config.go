package config

import "time"

// Config holds all application configuration.
type Config struct {
	Search        Search        `mapstructure:"search"`
	Summarizer    Summarizer    `mapstructure:"summarizer"`
	Speech        Speech        `mapstructure:"speech"`
	Enrich        Enrich        `mapstructure:"enrich"`
	Storage       Storage       `mapstructure:"storage"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Objects       Objects       `mapstructure:"objects"`
	Collector     Collector     `mapstructure:"collector"`
	Cache         Cache         `mapstructure:"cache"`
	MCP           MCP           `mapstructure:"mcp"`
}

// Search holds article search provider configuration.
type Search struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Language string        `mapstructure:"language"`
}

// Summarizer holds summarization model configuration.
type Summarizer struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Speech holds text-to-speech configuration.
type Speech struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Voice   string        `mapstructure:"voice"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enrich holds page fetch configuration for enrichment.
type Enrich struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Storage selects and configures the article backend.
type Storage struct {
	Backend string `mapstructure:"backend"` // "file" or "elastic"
	Dir     string `mapstructure:"dir"`     // file backend data directory
}

// Elasticsearch holds ES connection configuration for the elastic backend.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Objects holds S3/MinIO object storage configuration for generated audio.
type Objects struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Collector holds collection run configuration.
type Collector struct {
	Categories      []string      `mapstructure:"categories"`
	Interval        time.Duration `mapstructure:"interval"`
	RetentionWindow time.Duration `mapstructure:"retention_window"`
	Concurrency     int           `mapstructure:"concurrency"`
	PageSize        int           `mapstructure:"page_size"`
}

// Cache holds request cache configuration.
type Cache struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Search: Search{
			Endpoint: "https://gnews.io/api/v4",
			Timeout:  15 * time.Second,
			Language: "en",
		},
		Summarizer: Summarizer{
			BaseURL: "http://localhost:12434/engines/v1",
			Model:   "ai/gemma3",
			Timeout: 30 * time.Second,
		},
		Speech: Speech{
			BaseURL: "http://localhost:12434/engines/v1",
			Model:   "ai/kokoro",
			Voice:   "alloy",
			Timeout: 60 * time.Second,
		},
		Enrich: Enrich{
			UserAgent: "newsbrief/1.0",
			Timeout:   20 * time.Second,
		},
		Storage: Storage{
			Backend: "file",
			Dir:     "./data",
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "newsbrief-articles",
		},
		Objects: Objects{
			Endpoint:        "localhost:9002",
			Bucket:          "newsbrief",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Collector: Collector{
			Categories:      []string{"technology", "business", "science"},
			Interval:        15 * time.Minute,
			RetentionWindow: 24 * time.Hour,
			Concurrency:     3,
			PageSize:        10,
		},
		Cache: Cache{
			TTL: 30 * time.Second,
		},
		MCP: MCP{
			Name:    "newsbrief",
			Version: "1.0.0",
		},
	}
}
