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

// Config captures the settings required to boot the triage engine.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Logging    LoggingConfig   `yaml:"logging"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Patterns   PatternsConfig  `yaml:"patterns"`
	Sessions   SessionConfig   `yaml:"sessions"`
	Learning   LearningConfig  `yaml:"learning"`
	Ingest     IngestConfig    `yaml:"ingest"`
	Resources  ResourcesConfig `yaml:"resources"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ThresholdConfig groups the tunable scoring and audit thresholds.
type ThresholdConfig struct {
	P1CriticalCount int `yaml:"p1CriticalCount"`
	P2CriticalCount int `yaml:"p2CriticalCount"`
	P2VolumeCount   int `yaml:"p2VolumeCount"`

	BurstWindow time.Duration `yaml:"burstWindow"`
	BurstCount  int           `yaml:"burstCount"`

	// NumericTolerance is the relative difference tolerated between a newly
	// computed value and a previously stated fact before it counts as a
	// contradiction. Applies only above NumericToleranceFloor; smaller
	// magnitudes must match exactly.
	NumericTolerance      float64 `yaml:"numericTolerance"`
	NumericToleranceFloor float64 `yaml:"numericToleranceFloor"`

	// PredictionCeiling caps the confidence score of predictive answers.
	PredictionCeiling float64 `yaml:"predictionCeiling"`
}

// PatternsConfig controls failure-pattern pack loading.
type PatternsConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig bounds the per-conversation session store.
type SessionConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// LearningConfig controls the optional signature outcome store.
type LearningConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PostgresURL string `yaml:"postgresURL"`
}

// IngestConfig configures access to the external alert and metric source.
type IngestConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	AlertsPath  string        `yaml:"alertsPath"`
	MetricsPath string        `yaml:"metricsPath"`
	Timeout     time.Duration `yaml:"timeout"`

	// CacheSize bounds the fetched-window cache; zero disables caching.
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
}

// ResourcesConfig carries environment knowledge used by priority assignment
// and scope auditing.
type ResourcesConfig struct {
	P1Categories []string          `yaml:"p1Categories"`
	P2Categories []string          `yaml:"p2Categories"`
	SevereCodes  []string          `yaml:"severeCodes"`
	StandbyPairs map[string]string `yaml:"standbyPairs"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TRIAGE_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8085",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Thresholds: ThresholdConfig{
			P1CriticalCount:       100,
			P2CriticalCount:       10,
			P2VolumeCount:         500,
			BurstWindow:           5 * time.Minute,
			BurstCount:            10,
			NumericTolerance:      0.05,
			NumericToleranceFloor: 1000,
			PredictionCeiling:     0.60,
		},
		Patterns: PatternsConfig{Path: ""},
		Sessions: SessionConfig{
			Capacity: 256,
			TTL:      time.Hour,
		},
		Learning: LearningConfig{Enabled: false},
		Ingest: IngestConfig{
			AlertsPath:  "/api/v1/alerts",
			MetricsPath: "/api/v1/metrics",
			Timeout:     5 * time.Second,
			CacheSize:   64,
			CacheTTL:    30 * time.Second,
		},
		Resources: ResourcesConfig{
			P1Categories: []string{"standby", "dataguard", "redo", "archiver", "datafile", "system"},
			P2Categories: []string{"performance", "tablespace", "memory", "session"},
			SevereCodes:  []string{"ORA-600", "ORA-7445", "ORA-1578"},
			StandbyPairs: map[string]string{
				"MIDEVSTB": "MIDEVSTBN",
				"PRODDB":   "PRODDB_STANDBY",
				"FINDB":    "FINDB_DR",
			},
		},
	}
}

func (c *Config) validate() error {
	if c.Thresholds.PredictionCeiling <= 0 || c.Thresholds.PredictionCeiling > 1 {
		return fmt.Errorf("thresholds.predictionCeiling must be in (0,1], got %v", c.Thresholds.PredictionCeiling)
	}
	if c.Thresholds.NumericTolerance < 0 {
		return fmt.Errorf("thresholds.numericTolerance must be >= 0")
	}
	if c.Sessions.Capacity <= 0 {
		return fmt.Errorf("sessions.capacity must be positive")
	}
	if c.Thresholds.BurstCount <= 0 {
		return fmt.Errorf("thresholds.burstCount must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRIAGE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIAGE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TRIAGE_PATTERNS_PATH"); v != "" {
		cfg.Patterns.Path = v
	}
	if v := os.Getenv("TRIAGE_INGEST_BASE_URL"); v != "" {
		cfg.Ingest.BaseURL = v
	}
	if v := os.Getenv("TRIAGE_LEARNING_POSTGRES_URL"); v != "" {
		cfg.Learning.PostgresURL = v
		cfg.Learning.Enabled = true
	}
	if v := os.Getenv("TRIAGE_LEARNING_ENABLED"); v != "" {
		cfg.Learning.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRIAGE_P1_CRITICAL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.P1CriticalCount = n
		}
	}
	if v := os.Getenv("TRIAGE_P2_CRITICAL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.P2CriticalCount = n
		}
	}
	if v := os.Getenv("TRIAGE_P2_VOLUME_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.P2VolumeCount = n
		}
	}
	if v := os.Getenv("TRIAGE_BURST_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Thresholds.BurstWindow = d
		}
	}
	if v := os.Getenv("TRIAGE_BURST_THRESHOLD_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.BurstCount = n
		}
	}
	if v := os.Getenv("TRIAGE_NUMERIC_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.NumericTolerance = f
		}
	}
	if v := os.Getenv("TRIAGE_PREDICTION_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.PredictionCeiling = f
		}
	}
	if v := os.Getenv("TRIAGE_SESSION_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.Capacity = n
		}
	}
	if v := os.Getenv("TRIAGE_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = d
		}
	}
}
