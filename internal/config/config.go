package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported STORE_BACKEND values.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	StoreBackend    string `yaml:"store_backend"`
	DataFile        string `yaml:"data_file"`
	DBPath          string `yaml:"db_path"`
	BackupRetention int    `yaml:"backup_retention"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
}

// Load builds the configuration from defaults, then the YAML file named by
// PHOTOSHELF_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      ":8080",
		StoreBackend:    BackendFile,
		DataFile:        "/data/photos.json",
		DBPath:          "/data/photoshelf.db",
		BackupRetention: 10,
		MaxBodyBytes:    32 << 20,
		LogLevel:        "info",
	}

	if path, ok := os.LookupEnv("PHOTOSHELF_CONFIG"); ok && path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	retention, err := strconv.Atoi(getEnv("BACKUP_RETENTION", strconv.Itoa(cfg.BackupRetention)))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_RETENTION: %w", err)
	}
	cfg.BackupRetention = retention

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", strconv.FormatInt(cfg.MaxBodyBytes, 10)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES: %w", err)
	}
	cfg.MaxBodyBytes = maxBody

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (supported: file, sqlite, memory)", c.StoreBackend)
	}
	if c.BackupRetention < 0 {
		return fmt.Errorf("backup retention must not be negative, got %d", c.BackupRetention)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
