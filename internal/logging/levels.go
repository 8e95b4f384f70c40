package logging

import (
	"go.uber.org/zap/zapcore"
)

// LevelFromString parses a level name ("debug", "info", "warn", "error").
func LevelFromString(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
