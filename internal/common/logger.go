package common

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures the global logger.
type LogOptions struct {
	Level string
	// File adds a rotating JSON sink when set.
	File string
	// Pretty switches stdout to the human-readable console writer.
	Pretty bool
}

// InitLogger installs the global zerolog logger and returns the closer of the file
// sink, if any.
func InitLogger(opts LogOptions) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLogLevel(opts.Level))

	var stdout io.Writer = os.Stdout
	if opts.Pretty {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}
	if opts.File == "" {
		log.Logger = zerolog.New(stdout).With().Timestamp().Logger()
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(stdout, file)).With().Timestamp().Logger()
	return file
}

// ParseLogLevel maps a case-insensitive level name onto zerolog, defaulting to info.
func ParseLogLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
