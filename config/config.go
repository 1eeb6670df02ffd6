// Package config 加载服务配置：结构体默认值 -> 可选 YAML 文件 -> TOPCARE_* 环境变量，逐层覆盖。
package config

import (
	"time"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/model"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/store"
)

// Config 是 topcare 的全部配置。
type Config struct {
	Server  ServerConfig         `koanf:"server"`
	Catalog CatalogConfig        `koanf:"catalog"`
	Scoring ScoringConfig        `koanf:"scoring"`
	Feed    FeedConfig           `koanf:"feed"`
	Ranking RankingConfig        `koanf:"ranking"`
	Redis   store.RedisConfig    `koanf:"redis"`
	Kafka   feedback.KafkaConfig `koanf:"kafka"`
	Logging logging.Config       `koanf:"logging"`
}

// ServerConfig HTTP 服务。
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimit 每个 IP 每个窗口的请求数，0 表示不限流
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// CatalogConfig 商品库与详情缓存。
type CatalogConfig struct {
	DSN       string        `koanf:"dsn" validate:"required"`
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// ScoringConfig 远程搭配打分。Endpoint 为空时只用规则打分。
type ScoringConfig struct {
	Endpoint string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerSecond 本地调用预算，0 表示不限
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gte=0"`
	Burst         int     `koanf:"burst" validate:"gte=0"`

	Breaker model.BreakerConfig `koanf:"breaker"`

	// PoolSize 组装搭配时从商品库拉取的候选数
	PoolSize int `koanf:"pool_size" validate:"gte=1,lte=500"`
}

// FeedConfig 客户端 feed 会话（browse 命令）。
type FeedConfig struct {
	Endpoint string        `koanf:"endpoint" validate:"omitempty,url"`
	PageSize int           `koanf:"page_size" validate:"gte=1,lte=100"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`
}

// RankingConfig 服务端排序。
type RankingConfig struct {
	// PipelinesPath 为空时使用内置的 Pipeline 配置
	PipelinesPath  string        `koanf:"pipelines_path"`
	CapabilityRule string        `koanf:"capability_rule"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	// OrderCacheTTL 为 0 时不缓存排序序列
	OrderCacheTTL  time.Duration `koanf:"order_cache_ttl" validate:"gte=0"`
}

func defaultConfig() *Config {
	log := logging.DefaultConfig()
	log.Output = nil
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Catalog: CatalogConfig{
			DSN:       "topcare.db",
			CacheSize: 1024,
			CacheTTL:  5 * time.Minute,
		},
		Scoring: ScoringConfig{
			Timeout:       5 * time.Second,
			RatePerSecond: 20,
			Burst:         40,
			Breaker:       model.DefaultBreakerConfig(),
			PoolSize:      200,
		},
		Feed: FeedConfig{
			Endpoint: "http://localhost:8080/api/v1/feed",
			PageSize: 20,
			Timeout:  5 * time.Second,
		},
		Ranking: RankingConfig{
			Timeout:       5 * time.Second,
			OrderCacheTTL: 2 * time.Minute,
		},
		Redis: store.RedisConfig{
			DialTimeout: 3 * time.Second,
		},
		Kafka: feedback.KafkaConfig{
			Topic:         "topcare.telemetry",
			BatchSize:     100,
			FlushInterval: time.Second,
			ClientID:      "topcare",
		},
		Logging: log,
	}
}

// Default 返回全部默认值。
func Default() *Config { return defaultConfig() }
