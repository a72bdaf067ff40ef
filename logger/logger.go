package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogBuild struct {
	writer  io.Writer
	level   zerolog.Level
	console bool
}

func New() *LogBuild {
	return &LogBuild{writer: os.Stderr, level: zerolog.InfoLevel}
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// WithLevel parses a zerolog level name. Unknown names keep the current level.
func (build *LogBuild) WithLevel(level string) *LogBuild {
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		build.level = parsed
	}
	return build
}

func (build *LogBuild) Console(enabled bool) *LogBuild {
	build.console = enabled
	return build
}

func (build *LogBuild) Make() zerolog.Logger {
	w := build.writer
	if build.console {
		w = zerolog.ConsoleWriter{Out: build.writer, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(build.level).With().Timestamp().Logger()
}

// Install builds the logger and makes it the process-wide default used by
// github.com/rs/zerolog/log.
func (build *LogBuild) Install() zerolog.Logger {
	l := build.Make()
	log.Logger = l
	zerolog.SetGlobalLevel(build.level)
	return l
}
