package screen

import (
	"fmt"
	"strings"
)

// Label identifies the game screen recognized in a single frame
type Label string

const (
	// Unknown means no known screen was recognized
	Unknown Label = ""

	// Loading is the blacked-out loading screen shown before a battle
	Loading Label = "Loading"

	// LobbyFindBattle is the lobby screen shown while matchmaking
	LobbyFindBattle Label = "LobbyFindBattle"

	// LobbyModeSelect is the lobby mode selection screen
	LobbyModeSelect Label = "LobbyModeSelect"

	// LobbyStandby is the lobby standby screen
	LobbyStandby Label = "LobbyStandby"

	// ResultContinue is the "continue?" prompt after the results
	ResultContinue Label = "ResultContinue"

	// ResultOkaneRank is the cash/rank result screen that closes a battle
	ResultOkaneRank Label = "ResultOkaneRank"

	// ResultUdemae is the stat/rank result screen that confirms a battle
	ResultUdemae Label = "ResultUdemae"
)

// Vocabulary lists the built-in labels in default template priority order,
// preceded by Loading which is detected without a template.
var Vocabulary = []Label{
	Loading,
	LobbyFindBattle,
	LobbyModeSelect,
	LobbyStandby,
	ResultContinue,
	ResultOkaneRank,
	ResultUdemae,
}

// IsLobby reports whether the label is one of the lobby screens
func (l Label) IsLobby() bool {
	switch l {
	case LobbyStandby, LobbyModeSelect, LobbyFindBattle:
		return true
	}
	return false
}

// String returns the label text, or "-" for Unknown
func (l Label) String() string {
	if l == Unknown {
		return "-"
	}
	return string(l)
}

// ParseLabel parses a label name case-insensitively.
// Names outside the built-in vocabulary are accepted as-is so that
// alternate template sets can introduce their own screens.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Unknown, nil
	}
	for _, v := range Vocabulary {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	if strings.ContainsAny(s, " \t,") {
		return Unknown, fmt.Errorf("invalid label %q: must not contain spaces or commas", s)
	}
	return Label(s), nil
}
