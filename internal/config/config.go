package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr = ":9999"
	defaultChunkDir   = "./uploads_temp"
	defaultOutputDir  = "./uploads"
	defaultLogLevel   = "info"
	defaultGCSchedule = "@every 30m"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	ChunkDir   string `yaml:"chunk_dir" json:"chunk_dir"`
	OutputDir  string `yaml:"output_dir" json:"output_dir"`
	StaticDir  string `yaml:"static_dir" json:"static_dir"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogPretty  bool   `yaml:"log_pretty" json:"log_pretty"`
	// MaxChunkBytes ограничивает тело одного запроса на загрузку; 0 — без ограничения.
	MaxChunkBytes int64 `yaml:"max_chunk_bytes" json:"max_chunk_bytes"`
	// GCTTL — возраст брошенной сессии; 0 отключает GC.
	GCTTL      time.Duration `yaml:"gc_ttl" json:"gc_ttl"`
	GCSchedule string        `yaml:"gc_schedule" json:"gc_schedule"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		ListenAddr: defaultListenAddr,
		ChunkDir:   defaultChunkDir,
		OutputDir:  defaultOutputDir,
		LogLevel:   defaultLogLevel,
		GCSchedule: defaultGCSchedule,
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствующий файл не ошибка: берутся значения по умолчанию.
func Load() (*Config, error) {
	c := Default()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err = c.applyEnv(); err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("CHUNK_DIR"); v != "" {
		c.ChunkDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GC_SCHEDULE"); v != "" {
		c.GCSchedule = v
	}
	if v := os.Getenv("MAX_CHUNK_BYTES"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_CHUNK_BYTES: %w", err)
		}
		c.MaxChunkBytes = n
	}
	if v := os.Getenv("GC_TTL"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("GC_TTL: %w", err)
		}
		c.GCTTL = d
	}

	return nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is empty")
	}
	if strings.TrimSpace(c.ChunkDir) == "" {
		return fmt.Errorf("chunk_dir is empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir is empty")
	}
	if c.MaxChunkBytes < 0 {
		return fmt.Errorf("max_chunk_bytes must be >= 0")
	}
	if c.GCTTL < 0 {
		return fmt.Errorf("gc_ttl must be >= 0")
	}
	if c.GCTTL > 0 && strings.TrimSpace(c.GCSchedule) == "" {
		return fmt.Errorf("gc_schedule is required when gc_ttl is set")
	}

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
