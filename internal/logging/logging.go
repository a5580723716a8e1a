// Package logging holds the process-wide zerolog logger. Every other
// package logs through logging.L so output setup happens exactly once.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var L zerolog.Logger

func init() {
	L = zerolog.New(consoleWriter()).With().Timestamp().Logger()
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

func SetLogLevel(level zerolog.Level) {
	L = L.Level(level)
}

// SetOutputs reconfigures the logger. When path is non-empty the log is
// appended to that file; toConsole additionally keeps stderr output.
func SetOutputs(toConsole bool, path string) error {
	var writers []io.Writer
	if toConsole {
		writers = append(writers, consoleWriter())
	}
	if path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	if len(writers) == 0 {
		writers = append(writers, consoleWriter())
	}
	level := L.GetLevel()
	L = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().Level(level)
	return nil
}
