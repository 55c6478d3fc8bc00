package logger

import (
	"os"
	"strings"
)

type Level string

func (l Level) String() string { return string(l) }

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

var envToLevel = map[string]Level{
	"debug":    LevelDebug,
	"info":     LevelInfo,
	"warn":     LevelWarn,
	"error":    LevelError,
	"fatal":    LevelFatal,
	"critical": LevelFatal,

	"d": LevelDebug,
	"i": LevelInfo,
	"w": LevelWarn,
	"e": LevelError,
	"f": LevelFatal,
	"c": LevelFatal,
}

func init() {
	if level, ok := lookupLevelFromENV(); ok {
		Default.Level = level
	}
}

func lookupLevelFromENV() (Level, bool) {
	for _, envKey := range []string{"LOG_LEVEL", "LOGGER_LEVEL", "LOGGING_LEVEL"} {
		if raw, ok := os.LookupEnv(envKey); ok {
			if level, ok := envToLevel[strings.ToLower(raw)]; ok {
				return level, ok
			}
		}
	}
	return "", false
}

var levelPriorityMapping = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

func isLevelEnabled(target, level Level) bool {
	if target == "" {
		target = LevelInfo
	}
	return levelPriorityMapping[target] <= levelPriorityMapping[level]
}
