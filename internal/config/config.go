// Package config loads application configuration from config.yaml and
// ADVISOR_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Reddit     RedditConfig     `yaml:"reddit" mapstructure:"reddit"`
	YouTube    YouTubeConfig    `yaml:"youtube" mapstructure:"youtube"`
	MarketData MarketDataConfig `yaml:"marketdata" mapstructure:"marketdata"`
	Risk       RiskConfig       `yaml:"risk" mapstructure:"risk"`
	Cluster    ClusterConfig    `yaml:"cluster" mapstructure:"cluster"`
	Sentiment  SentimentConfig  `yaml:"sentiment" mapstructure:"sentiment"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// RedditConfig holds Reddit API settings.
type RedditConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	Subreddit string `yaml:"subreddit" mapstructure:"subreddit"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// MarketDataConfig configures the market data fetcher.
type MarketDataConfig struct {
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	LookbackDays  int     `yaml:"lookback_days" mapstructure:"lookback_days"`
	IndexSymbol   string  `yaml:"index_symbol" mapstructure:"index_symbol"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	QuerySuffix   string  `yaml:"query_suffix" mapstructure:"query_suffix"`
}

// RiskConfig configures the questionnaire scorer.
type RiskConfig struct {
	QuestionsPath string `yaml:"questions_path" mapstructure:"questions_path"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ClusterConfig configures the clustering pipeline.
type ClusterConfig struct {
	K      int    `yaml:"k" mapstructure:"k"`
	MaxK   int    `yaml:"max_k" mapstructure:"max_k"`
	Seed   uint64 `yaml:"seed" mapstructure:"seed"`
	Output string `yaml:"output" mapstructure:"output"`
}

// SentimentConfig configures the sentiment risk variant.
type SentimentConfig struct {
	ItemsPerSource  int     `yaml:"items_per_source" mapstructure:"items_per_source"`
	BetaWeight      float64 `yaml:"beta_weight" mapstructure:"beta_weight"`
	SentimentWeight float64 `yaml:"sentiment_weight" mapstructure:"sentiment_weight"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "advisor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 20)
	v.SetDefault("reddit.user_agent", "advisor-cli/1.0")
	v.SetDefault("reddit.subreddit", "IndianStockMarket")
	v.SetDefault("marketdata.concurrency", 4)
	v.SetDefault("marketdata.lookback_days", 365)
	v.SetDefault("marketdata.index_symbol", "^NSEI")
	v.SetDefault("marketdata.rate_per_second", 4)
	v.SetDefault("marketdata.query_suffix", ".NS")
	v.SetDefault("risk.concurrency", 4)
	v.SetDefault("cluster.max_k", 10)
	v.SetDefault("cluster.seed", 42)
	v.SetDefault("cluster.output", "indian_stocks_clusters.csv")
	v.SetDefault("sentiment.items_per_source", 15)
	v.SetDefault("sentiment.beta_weight", 0.5)
	v.SetDefault("sentiment.sentiment_weight", 0.5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
