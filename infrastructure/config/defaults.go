package config

import (
	"path/filepath"
	"strings"

	"gachi-analyzer/domain/screen"
)

const (
	defaultTemplatesDir      = "templates"
	defaultSourceDirectory   = "recordings"
	defaultWorkers           = 1
	defaultFrameInterval     = 1
	defaultReferenceWidth    = 1280
	defaultReferenceHeight   = 720
	defaultLoadingBlackRatio = 0.8
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultTokenFile         = "drive_token.json"
	defaultOAuthPort         = 8085
	defaultFFprobePath       = "ffprobe"
)

// Default returns a Config populated with the built-in defaults
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// DefaultTemplateConfigs returns the built-in template list
func DefaultTemplateConfigs() []TemplateConfig {
	templates := make([]TemplateConfig, 0, len(screen.DefaultTemplateFiles))
	for _, f := range screen.DefaultTemplateFiles {
		templates = append(templates, TemplateConfig{
			Label:     string(f.Label),
			File:      f.File,
			Threshold: screen.DefaultThreshold,
		})
	}
	return templates
}

// ApplyDefaults fills every unset field with its default value
func (c *Config) ApplyDefaults() {
	if c.Paths.TemplatesDir == "" {
		c.Paths.TemplatesDir = defaultTemplatesDir
	}
	if c.Paths.SourceDirectory == "" {
		c.Paths.SourceDirectory = defaultSourceDirectory
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = defaultWorkers
	}
	if c.Analysis.FrameInterval == 0 {
		c.Analysis.FrameInterval = defaultFrameInterval
	}
	if c.Detection.ReferenceWidth == 0 {
		c.Detection.ReferenceWidth = defaultReferenceWidth
	}
	if c.Detection.ReferenceHeight == 0 {
		c.Detection.ReferenceHeight = defaultReferenceHeight
	}
	if c.Detection.LoadingBlackRatio == 0 {
		c.Detection.LoadingBlackRatio = defaultLoadingBlackRatio
	}
	if len(c.Templates) == 0 {
		c.Templates = DefaultTemplateConfigs()
	}
	for i := range c.Templates {
		if c.Templates[i].Threshold == 0 {
			c.Templates[i].Threshold = screen.DefaultThreshold
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = defaultTokenFile
	}
	if c.Google.OAuthPort == 0 {
		c.Google.OAuthPort = defaultOAuthPort
	}
	if c.Tools.FFprobePath == "" {
		c.Tools.FFprobePath = defaultFFprobePath
	}
}

// TemplateSpecs resolves the configured templates against the templates
// directory, keeping their order.
func (c *Config) TemplateSpecs() ([]screen.TemplateSpec, error) {
	specs := make([]screen.TemplateSpec, 0, len(c.Templates))
	for _, t := range c.Templates {
		label, err := screen.ParseLabel(t.Label)
		if err != nil {
			return nil, err
		}
		path := strings.TrimSpace(t.File)
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Paths.TemplatesDir, path)
		}
		specs = append(specs, screen.TemplateSpec{
			Label:     label,
			Path:      path,
			Threshold: t.Threshold,
		})
	}
	return specs, nil
}
