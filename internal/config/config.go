package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                      string `yaml:"port"`
	LogLevel                  string `yaml:"logLevel"`
	Language                  string `yaml:"language"`
	LocalDBPath               string `yaml:"localDBPath"`
	SeedAssetPath             string `yaml:"seedAssetPath"`
	SeedCacheDir              string `yaml:"seedCacheDir"`
	MinioEndpoint             string `yaml:"minioEndpoint"`
	MinioAccessKey            string `yaml:"minioAccessKey"`
	MinioSecretKey            string `yaml:"minioSecretKey"`
	MinioBucket               string `yaml:"minioBucket"`
	MinioObject               string `yaml:"minioObject"`
	MinioUseSSL               bool   `yaml:"minioUseSSL"`
	ContentServiceURL         string `yaml:"contentServiceURL"`
	AuthServiceURL            string `yaml:"authServiceURL"`
	RedisAddr                 string `yaml:"redisAddr"`
	RedisPassword             string `yaml:"redisPassword"`
	RefreshRateLimitPerMinute int    `yaml:"refreshRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("SCRIPTURA_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SCRIPTURA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCRIPTURA_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("SCRIPTURA_LOCAL_DB_PATH"); v != "" {
		cfg.LocalDBPath = v
	}
	if v := os.Getenv("SCRIPTURA_SEED_ASSET_PATH"); v != "" {
		cfg.SeedAssetPath = v
	}
	if v := os.Getenv("SCRIPTURA_SEED_CACHE_DIR"); v != "" {
		cfg.SeedCacheDir = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_OBJECT"); v != "" {
		cfg.MinioObject = v
	}
	if v := os.Getenv("SCRIPTURA_MINIO_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = useSSL
		}
	}
	if v := os.Getenv("SCRIPTURA_CONTENT_SERVICE_URL"); v != "" {
		cfg.ContentServiceURL = v
	}
	if v := os.Getenv("SCRIPTURA_AUTH_SERVICE_URL"); v != "" {
		cfg.AuthServiceURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SCRIPTURA_REFRESH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshRateLimitPerMinute = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or SCRIPTURA_PORT)")
	}
	if cfg.Language == "" {
		return errors.New("config: language is required (set in config.yaml or SCRIPTURA_LANGUAGE)")
	}
	if cfg.LocalDBPath == "" {
		return errors.New("config: localDBPath is required (set in config.yaml or SCRIPTURA_LOCAL_DB_PATH)")
	}
	if cfg.SeedAssetPath == "" && cfg.MinioEndpoint == "" {
		return errors.New("config: either seedAssetPath or minioEndpoint is required")
	}
	if cfg.MinioEndpoint != "" {
		if cfg.MinioBucket == "" || cfg.MinioObject == "" {
			return errors.New("config: minioBucket and minioObject are required when minioEndpoint is set")
		}
		if cfg.SeedCacheDir == "" {
			return errors.New("config: seedCacheDir is required when minioEndpoint is set")
		}
	}
	if cfg.ContentServiceURL == "" {
		return errors.New("config: contentServiceURL is required (set in config.yaml)")
	}
	if cfg.AuthServiceURL == "" {
		return errors.New("config: authServiceURL is required (set in config.yaml)")
	}
	if cfg.RefreshRateLimitPerMinute < 0 {
		return errors.New("config: refreshRateLimitPerMinute must be >= 0")
	}
	if cfg.RefreshRateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when refreshRateLimitPerMinute > 0")
	}
	return nil
}
