package compose

import (
	"sort"
	"strings"
)

// Mode is the closed set of writing forms. ModeUnknown only exists at the
// boundary where free text is parsed.
type Mode string

const (
	ModeUnknown     Mode = ""
	ModeLetter      Mode = "letter"
	ModeJournal     Mode = "journal"
	ModePoem        Mode = "poem"
	ModeStory       Mode = "story"
	ModeQuote       Mode = "quote"
	ModeAffirmation Mode = "affirmation"
	ModeReflection  Mode = "reflection"
	ModeNote        Mode = "note"
)

var allModes = []Mode{
	ModeLetter,
	ModeJournal,
	ModePoem,
	ModeStory,
	ModeQuote,
	ModeAffirmation,
	ModeReflection,
	ModeNote,
}

// plural forms used by older clients
var modeAliases = map[string]Mode{
	"letters":      ModeLetter,
	"journals":     ModeJournal,
	"poems":        ModePoem,
	"stories":      ModeStory,
	"quotes":       ModeQuote,
	"affirmations": ModeAffirmation,
	"reflections":  ModeReflection,
	"notes":        ModeNote,
}

// AllModes returns every supported mode in display order.
func AllModes() []Mode {
	out := make([]Mode, len(allModes))
	copy(out, allModes)
	return out
}

// ModeAliases lists the alternate keys accepted for m, sorted.
func ModeAliases(m Mode) []string {
	var out []string
	for alias, target := range modeAliases {
		if target == m {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// ParseMode normalizes a user-supplied key. The boolean is false for anything
// outside the enumeration.
func ParseMode(s string) (Mode, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return ModeUnknown, false
	}
	for _, m := range allModes {
		if string(m) == key {
			return m, true
		}
	}
	if m, ok := modeAliases[key]; ok {
		return m, true
	}
	return ModeUnknown, false
}

func (m Mode) String() string {
	if m == ModeUnknown {
		return "unknown"
	}
	return string(m)
}

func (m Mode) Valid() bool {
	for _, x := range allModes {
		if x == m {
			return true
		}
	}
	return false
}
