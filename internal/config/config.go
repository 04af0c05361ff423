package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "NEWSDEX_CONFIG"
	feedAccessKeyEnv   = "MEDIASTACK_ACCESS_KEY"
	elasticAddressEnv  = "ELASTICSEARCH_ADDRESS"
	milvusAddressEnv   = "MILVUS_ADDRESS"
	embeddingURLEnv    = "EMBEDDING_BASE_URL"
	embeddingAPIKeyEnv = "EMBEDDING_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Feed       FeedConfig       `yaml:"feed"`
	Elastic    ElasticConfig    `yaml:"elasticsearch"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the pipelines should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FeedConfig describes the paged news feed API.
type FeedConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	AccessKey string `yaml:"accessKey"`
	Languages string `yaml:"languages"`
	Countries string `yaml:"countries"`
	PageSize  int    `yaml:"pageSize"`
}

// ElasticConfig describes the document store connection.
type ElasticConfig struct {
	Address string `yaml:"address"`
	Index   string `yaml:"index"`
}

// MilvusConfig describes the vector store connection.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig describes the sentence-embedding service.
type EmbeddingConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batchSize"`
	Workers   int    `yaml:"workers"`
}

// EnrichmentConfig bounds the window selection.
type EnrichmentConfig struct {
	WindowDays int `yaml:"windowDays"`
	Limit      int `yaml:"limit"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An explicit path wins over the NEWSDEX_CONFIG variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(feedAccessKeyEnv); v != "" {
		c.Feed.AccessKey = v
	}

	if v := os.Getenv(elasticAddressEnv); v != "" {
		c.Elastic.Address = v
	}

	if v := os.Getenv(milvusAddressEnv); v != "" {
		c.Milvus.Address = v
	}

	if v := os.Getenv(embeddingURLEnv); v != "" {
		c.Embedding.BaseURL = v
	}

	if v := os.Getenv(embeddingAPIKeyEnv); v != "" {
		c.Embedding.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Feed.BaseURL != "" {
		base.Feed.BaseURL = override.Feed.BaseURL
	}
	if override.Feed.AccessKey != "" {
		base.Feed.AccessKey = override.Feed.AccessKey
	}
	if override.Feed.Languages != "" {
		base.Feed.Languages = override.Feed.Languages
	}
	if override.Feed.Countries != "" {
		base.Feed.Countries = override.Feed.Countries
	}
	if override.Feed.PageSize > 0 {
		base.Feed.PageSize = override.Feed.PageSize
	}

	if override.Elastic.Address != "" {
		base.Elastic.Address = override.Elastic.Address
	}
	if override.Elastic.Index != "" {
		base.Elastic.Index = override.Elastic.Index
	}

	if override.Milvus.Address != "" {
		base.Milvus.Address = override.Milvus.Address
	}
	if override.Milvus.Collection != "" {
		base.Milvus.Collection = override.Milvus.Collection
	}

	if override.Embedding.BaseURL != "" {
		base.Embedding.BaseURL = override.Embedding.BaseURL
	}
	if override.Embedding.Model != "" {
		base.Embedding.Model = override.Embedding.Model
	}
	if override.Embedding.APIKey != "" {
		base.Embedding.APIKey = override.Embedding.APIKey
	}
	if override.Embedding.Dimension > 0 {
		base.Embedding.Dimension = override.Embedding.Dimension
	}
	if override.Embedding.BatchSize > 0 {
		base.Embedding.BatchSize = override.Embedding.BatchSize
	}
	if override.Embedding.Workers > 0 {
		base.Embedding.Workers = override.Embedding.Workers
	}

	if override.Enrichment.WindowDays > 0 {
		base.Enrichment.WindowDays = override.Enrichment.WindowDays
	}
	if override.Enrichment.Limit > 0 {
		base.Enrichment.Limit = override.Enrichment.Limit
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Feed: FeedConfig{
			BaseURL:   "http://api.mediastack.com/v1/news",
			Languages: "en",
			Countries: "us",
			PageSize:  100,
		},
		Elastic: ElasticConfig{
			Address: "http://localhost:9200",
			Index:   "raw_articles",
		},
		Milvus: MilvusConfig{
			Address:    "localhost:19530",
			Collection: "article_embeddings",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://localhost:11434/v1",
			Model:     "nomic-embed-text",
			APIKey:    "none",
			Dimension: 768,
			BatchSize: 32,
			Workers:   4,
		},
		Enrichment: EnrichmentConfig{
			WindowDays: 10,
			Limit:      50,
		},
	}
}
