package screen

import (
	"fmt"
	"path/filepath"
)

// DefaultThreshold is the match score a template must reach by default
const DefaultThreshold = 0.7

// TemplateSpec describes one reference image used to recognize a screen
type TemplateSpec struct {
	// Label is reported when the template matches
	Label Label

	// Path is the reference image location
	Path string

	// Threshold is the minimum normalized correlation score (0.0-1.0)
	Threshold float64
}

// DefaultTemplateFiles maps each template-backed label to its reference image
// file name, in evaluation order.
var DefaultTemplateFiles = []struct {
	Label Label
	File  string
}{
	{LobbyFindBattle, "lobby_find_battle.png"},
	{LobbyModeSelect, "lobby_mode_select.png"},
	{LobbyStandby, "lobby_standby.png"},
	{ResultContinue, "result_continue.png"},
	{ResultOkaneRank, "result_okane_rank.png"},
	{ResultUdemae, "result_stat_udemae.png"},
}

// DefaultTemplates returns the built-in template list rooted at dir
func DefaultTemplates(dir string) []TemplateSpec {
	specs := make([]TemplateSpec, 0, len(DefaultTemplateFiles))
	for _, f := range DefaultTemplateFiles {
		specs = append(specs, TemplateSpec{
			Label:     f.Label,
			Path:      filepath.Join(dir, f.File),
			Threshold: DefaultThreshold,
		})
	}
	return specs
}

// TemplateLoadError reports a reference image that could not be loaded
type TemplateLoadError struct {
	Label Label
	Path  string
	Err   error
}

func (e *TemplateLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load %s template %s: %v", e.Label, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load %s template %s", e.Label, e.Path)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}
