package config

import (
	"errors"
	"fmt"
	"strings"

	"gachi-analyzer/domain/screen"
)

// Errors for config management
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDuplicateKey     = errors.New("key already exists")
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
	ErrLastTemplate     = errors.New("cannot remove the last template")
)

// ConfigManager provides CRUD operations for the template list.
// Every successful change is saved to configPath. The config should come
// from LoadFile so that environment overrides and defaults of other
// sections are not written back.
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager. A config without templates
// starts from the built-in list, which is what analysis would use.
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	if len(cfg.Templates) == 0 {
		cfg.Templates = DefaultTemplateConfigs()
	}
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Template is one configured template with its evaluation position
type Template struct {
	Position  int
	Label     screen.Label
	File      string
	Threshold float64
}

// AddTemplate appends a template to the end of the evaluation order.
// A zero threshold means screen.DefaultThreshold.
func (m *ConfigManager) AddTemplate(label, file string, threshold float64) error {
	l, err := parseTemplateLabel(label)
	if err != nil {
		return err
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return fmt.Errorf("template file is required")
	}
	if threshold == 0 {
		threshold = screen.DefaultThreshold
	}
	if err := checkThreshold(threshold); err != nil {
		return err
	}

	if _, err := m.find(l); err == nil {
		return fmt.Errorf("%w: template %q", ErrDuplicateKey, l)
	}

	templates := append(m.cloneTemplates(), TemplateConfig{
		Label:     string(l),
		File:      file,
		Threshold: threshold,
	})
	return m.commit(templates)
}

// ListTemplates returns all templates in evaluation order
func (m *ConfigManager) ListTemplates() []Template {
	result := make([]Template, 0, len(m.config.Templates))
	for i, tc := range m.config.Templates {
		result = append(result, Template{
			Position:  i + 1,
			Label:     screen.Label(tc.Label),
			File:      tc.File,
			Threshold: effectiveThreshold(tc.Threshold),
		})
	}
	return result
}

// GetTemplate gets a template by label (case-insensitive)
func (m *ConfigManager) GetTemplate(label string) (Template, error) {
	l, err := screen.ParseLabel(label)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, label)
	}
	i, err := m.find(l)
	if err != nil {
		return Template{}, err
	}
	tc := m.config.Templates[i]
	return Template{Position: i + 1, Label: l, File: tc.File, Threshold: effectiveThreshold(tc.Threshold)}, nil
}

// RemoveTemplate removes a template by label
func (m *ConfigManager) RemoveTemplate(label string) error {
	t, err := m.GetTemplate(label)
	if err != nil {
		return err
	}
	if len(m.config.Templates) == 1 {
		return ErrLastTemplate
	}

	i := t.Position - 1
	templates := m.cloneTemplates()
	return m.commit(append(templates[:i], templates[i+1:]...))
}

// UpdateTemplate changes a template's file and/or threshold.
// Empty file and zero threshold keep the current values.
func (m *ConfigManager) UpdateTemplate(label, file string, threshold float64) error {
	t, err := m.GetTemplate(label)
	if err != nil {
		return err
	}

	templates := m.cloneTemplates()
	tc := &templates[t.Position-1]
	if file = strings.TrimSpace(file); file != "" {
		tc.File = file
	}
	if threshold != 0 {
		if err := checkThreshold(threshold); err != nil {
			return err
		}
		tc.Threshold = threshold
	}
	return m.commit(templates)
}

// MoveTemplate moves a template to a 1-based position in the evaluation
// order. The first matching template wins, so order decides ties.
func (m *ConfigManager) MoveTemplate(label string, position int) error {
	t, err := m.GetTemplate(label)
	if err != nil {
		return err
	}
	if position < 1 || position > len(m.config.Templates) {
		return fmt.Errorf("position must be between 1 and %d, got %d", len(m.config.Templates), position)
	}

	from, to := t.Position-1, position-1
	rest := m.cloneTemplates()
	moved := rest[from]
	rest = append(rest[:from], rest[from+1:]...)

	templates := make([]TemplateConfig, 0, len(m.config.Templates))
	templates = append(templates, rest[:to]...)
	templates = append(templates, moved)
	templates = append(templates, rest[to:]...)
	return m.commit(templates)
}

// SuggestAddTemplateCommand returns the command to add a missing template
func SuggestAddTemplateCommand(label string) string {
	return fmt.Sprintf("gachi-analyzer templates add %s --file <image.png>", label)
}

func (m *ConfigManager) cloneTemplates() []TemplateConfig {
	return append([]TemplateConfig(nil), m.config.Templates...)
}

// commit saves the config with the given template list and only then
// replaces the in-memory list.
func (m *ConfigManager) commit(templates []TemplateConfig) error {
	next := *m.config
	next.Templates = templates
	if err := Save(&next, m.configPath); err != nil {
		return err
	}
	m.config.Templates = templates
	return nil
}

func (m *ConfigManager) find(label screen.Label) (int, error) {
	for i, tc := range m.config.Templates {
		if strings.EqualFold(tc.Label, string(label)) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrTemplateNotFound, label)
}

func parseTemplateLabel(label string) (screen.Label, error) {
	l, err := screen.ParseLabel(label)
	if err != nil {
		return "", err
	}
	switch l {
	case screen.Unknown:
		return "", fmt.Errorf("template label is required")
	case screen.Loading:
		return "", fmt.Errorf("%s is detected without a template", screen.Loading)
	}
	return l, nil
}

func effectiveThreshold(threshold float64) float64 {
	if threshold == 0 {
		return screen.DefaultThreshold
	}
	return threshold
}

func checkThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}
