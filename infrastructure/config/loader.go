package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration file is looked up when none is given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig      `yaml:"paths"`
	Analysis  AnalysisConfig   `yaml:"analysis"`
	Detection DetectionConfig  `yaml:"detection"`
	Templates []TemplateConfig `yaml:"templates"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Google    GoogleConfig     `yaml:"google"`
	Tools     ToolsConfig      `yaml:"tools"`
}

// PathsConfig contains directory paths
type PathsConfig struct {
	TemplatesDir    string `yaml:"templates_dir" env:"GACHI_TEMPLATES_DIR"`
	SourceDirectory string `yaml:"source_directory" env:"GACHI_SOURCE_DIR"`
}

// AnalysisConfig contains sampling settings
type AnalysisConfig struct {
	Workers       int  `yaml:"workers" env:"GACHI_WORKERS"`
	FrameInterval int  `yaml:"frame_interval" env:"GACHI_FRAME_INTERVAL"`
	FlushTrailing bool `yaml:"flush_trailing" env:"GACHI_FLUSH_TRAILING"`
}

// DetectionConfig contains frame classification settings
type DetectionConfig struct {
	ReferenceWidth    int     `yaml:"reference_width" env:"GACHI_REFERENCE_WIDTH"`
	ReferenceHeight   int     `yaml:"reference_height" env:"GACHI_REFERENCE_HEIGHT"`
	LoadingBlackRatio float64 `yaml:"loading_black_ratio" env:"GACHI_LOADING_BLACK_RATIO"`
}

// TemplateConfig is one reference image entry, evaluated in list order
type TemplateConfig struct {
	Label     string  `yaml:"label"`
	File      string  `yaml:"file"`
	Threshold float64 `yaml:"threshold"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level" env:"GACHI_LOG_LEVEL"`
	Format string `yaml:"format" env:"GACHI_LOG_FORMAT"`
}

// MetricsConfig contains run metrics export settings
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" env:"GACHI_METRICS_FILE"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile    string `yaml:"credentials_file" env:"GACHI_GOOGLE_CREDENTIALS"`
	TokenFile          string `yaml:"token_file" env:"GACHI_GOOGLE_TOKEN"`
	RecordingsFolderID string `yaml:"recordings_folder_id" env:"GACHI_DRIVE_FOLDER_ID"`
	OAuthPort          int    `yaml:"oauth_port" env:"GACHI_OAUTH_PORT"`
}

// ToolsConfig contains external binary locations
type ToolsConfig struct {
	FFprobePath string `yaml:"ffprobe_path" env:"GACHI_FFPROBE"`
}

// Load reads and parses the configuration from the specified YAML file,
// then applies GACHI_* environment overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg, nil); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the built-in defaults
// when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = &Config{}
	if err := applyEnv(cfg, nil); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFile reads the YAML file as written, without environment overrides or
// defaults. A missing file yields an empty Config. Use it for edits that are
// saved back to the same file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays environment variables on the sections that support them.
// A nil environ reads the process environment.
func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Environment: environ}
	targets := []any{
		&cfg.Paths,
		&cfg.Analysis,
		&cfg.Detection,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Google,
		&cfg.Tools,
	}
	for _, target := range targets {
		if err := env.ParseWithOptions(target, opts); err != nil {
			return fmt.Errorf("failed to apply environment overrides: %w", err)
		}
	}
	return nil
}
