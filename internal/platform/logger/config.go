package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and destination of photoctl's logs.
type Config struct {
	Level  string // zap level name; empty or unknown means warn
	Format string // "json" or "console"
	Output string // "stderr", "stdout" or a file path
}

// Verbose returns c with the level dropped to debug when on is set.
func (c Config) Verbose(on bool) Config {
	if on {
		c.Level = "debug"
	}
	return c
}

func (c Config) zapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil || c.Level == "" {
		return zapcore.WarnLevel
	}
	return lvl
}
