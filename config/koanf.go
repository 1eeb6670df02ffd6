package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀，例如 TOPCARE_SERVER_ADDR -> server.addr。
const EnvPrefix = "TOPCARE_"

// PathEnvVar 指定配置文件路径的环境变量。
const PathEnvVar = "TOPCARE_CONFIG"

// DefaultPaths 未指定路径时依次查找的配置文件。
var DefaultPaths = []string{
	"topcare.yaml",
	"topcare.yml",
	"/etc/topcare/config.yaml",
}

// 二级配置段：环境变量中的 SCORING_BREAKER_TIMEOUT 对应 scoring.breaker.timeout
var nestedSections = []string{"scoring_breaker_"}

// 逗号分隔的列表字段
var sliceConfigPaths = []string{"kafka.brokers"}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时查找 TOPCARE_CONFIG 与 DefaultPaths；都不存在时只用默认值和环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate 按 validate 标签校验。
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey 把 TOPCARE_SERVER_READ_TIMEOUT 映射为 server.read_timeout：
// 第一个下划线之前是配置段，其余是字段名。
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	for _, nested := range nestedSections {
		if strings.HasPrefix(key, nested) {
			section := strings.Replace(strings.TrimSuffix(nested, "_"), "_", ".", 1)
			return section + "." + strings.TrimPrefix(key, nested)
		}
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
