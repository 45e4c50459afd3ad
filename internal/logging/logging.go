package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	Level  string // trace, debug, info, warn, error, none
	Format string // text or json
	Output string // "-" for stdout, "=" for stderr, otherwise a file path
	// Rotation limits, used only when Output is a file.
	FileMaxSizeMB int
	FilesKeep     int
}

// New builds a logrus logger from opts. Unknown levels fall back to info and
// unknown formats to text.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output(opts))

	switch strings.ToLower(opts.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		})
	}

	switch strings.ToLower(opts.Level) {
	case "none", "null":
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	case "":
		l.SetLevel(logrus.InfoLevel)
	default:
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		l.SetLevel(lvl)
	}
	return l
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	return New(Options{Level: "none"})
}

func output(opts Options) io.Writer {
	switch opts.Output {
	case "", "=":
		return os.Stderr
	case "-":
		return os.Stdout
	default:
		return &lumberjack.Logger{
			Filename:   opts.Output,
			MaxSize:    opts.FileMaxSizeMB,
			MaxBackups: opts.FilesKeep,
		}
	}
}
