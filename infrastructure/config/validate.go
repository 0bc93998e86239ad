package config

import (
	"fmt"
	"strings"

	"gachi-analyzer/domain/screen"
)

// ValidationError lists every problem found in a configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Analysis.Workers < 1 {
		add("analysis.workers must be at least 1")
	}
	if c.Analysis.FrameInterval < 1 {
		add("analysis.frame_interval must be at least 1")
	}
	if c.Detection.ReferenceWidth < 1 || c.Detection.ReferenceHeight < 1 {
		add("detection.reference_width and reference_height must be positive")
	}
	if c.Detection.LoadingBlackRatio <= 0 || c.Detection.LoadingBlackRatio > 1 {
		add("detection.loading_black_ratio must be in (0, 1]")
	}

	if c.Google.OAuthPort < 1 || c.Google.OAuthPort > 65535 {
		add("google.oauth_port must be between 1 and 65535")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		add("logging.format must be console or json, got %q", c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Templates))
	for i, t := range c.Templates {
		label, err := screen.ParseLabel(t.Label)
		switch {
		case err != nil:
			add("templates[%d]: %v", i, err)
		case label == screen.Unknown:
			add("templates[%d]: label is required", i)
		case label == screen.Loading:
			add("templates[%d]: Loading is detected without a template", i)
		case seen[string(label)]:
			add("templates[%d]: duplicate label %s", i, label)
		}
		seen[string(label)] = true

		if strings.TrimSpace(t.File) == "" {
			add("templates[%d]: file is required", i)
		}
		if t.Threshold < 0 || t.Threshold > 1 {
			add("templates[%d]: threshold must be between 0 and 1", i)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
