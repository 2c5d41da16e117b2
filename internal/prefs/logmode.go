package prefs

import (
	"fmt"
	"strings"
)

// LogMode controls which operations emit diagnostics.
//
// LogNone silences everything including missing-key warnings. LogDefault
// emits lifecycle and warning messages only. LogGet and LogSet additionally
// log every read or write at debug level, LogAll logs both.
type LogMode int

const (
	LogNone LogMode = iota - 1
	LogDefault
	LogGet
	LogSet
	LogAll
)

// String returns the lowercase name of the mode.
func (m LogMode) String() string {
	switch m {
	case LogNone:
		return "none"
	case LogDefault:
		return "default"
	case LogGet:
		return "get"
	case LogSet:
		return "set"
	case LogAll:
		return "all"
	default:
		return fmt.Sprintf("LogMode(%d)", int(m))
	}
}

// ParseLogMode parses a mode name case-insensitively. The empty string is
// LogDefault.
func ParseLogMode(s string) (LogMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return LogNone, nil
	case "", "default":
		return LogDefault, nil
	case "get":
		return LogGet, nil
	case "set":
		return LogSet, nil
	case "all":
		return LogAll, nil
	default:
		return LogDefault, fmt.Errorf("unknown log mode %q", s)
	}
}

func (m LogMode) enabled() bool { return m != LogNone }

func (m LogMode) logsGet() bool { return m == LogGet || m == LogAll }

func (m LogMode) logsSet() bool { return m == LogSet || m == LogAll }
