package model

import (
	"strings"
)

type LogLevel string // @Name LogLevel

const (
	Info    LogLevel = "info"
	Warning LogLevel = "warning"
	Error   LogLevel = "error"
	Debug   LogLevel = "debug"
)

// CanonicalLevels in display order
var CanonicalLevels = []LogLevel{Error, Warning, Info, Debug}

// AcceptedLevelTokens is the severity vocabulary accepted on ingestion, in descending severity.
var AcceptedLevelTokens = []string{"shout", "severe", "warning", "info", "config", "fine", "finer", "finest"}

var levelMapping = map[string]LogLevel{
	"shout":   Error,
	"severe":  Error,
	"warning": Warning,
	"info":    Info,
	"config":  Info,
	"fine":    Debug,
	"finer":   Debug,
	"finest":  Debug,
}

// IsAcceptedLevel reports whether the token, compared case-insensitively, belongs to the ingestion vocabulary.
func IsAcceptedLevel(token string) bool {
	_, ok := levelMapping[strings.ToLower(token)]
	return ok
}

// NormalizeLevel maps an ingestion token to its canonical level. Tokens outside the
// vocabulary return ok=false, there is no fallback level.
func NormalizeLevel(token string) (LogLevel, bool) {
	level, ok := levelMapping[strings.ToLower(token)]
	return level, ok
}

// ParseLevel parses one of the four canonical level names.
func ParseLevel(value string) (LogLevel, bool) {
	switch LogLevel(strings.ToLower(value)) {
	case Info:
		return Info, true
	case Warning:
		return Warning, true
	case Error:
		return Error, true
	case Debug:
		return Debug, true
	}
	return "", false
}

func (l LogLevel) IsValid() bool {
	_, ok := ParseLevel(string(l))
	return ok && string(l) == strings.ToLower(string(l))
}

func (l LogLevel) String() string {
	return string(l)
}
