// Package logging provides structured logging for the CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rescale/msibuild/internal/constants"
)

// Logger wraps zerolog with the console format used across the CLI.
type Logger struct {
	zlog    zerolog.Logger
	output  io.Writer          // current console writer
	file    *lumberjack.Logger // optional rolling log file
	noColor bool
}

// Options configures a Logger.
type Options struct {
	// Out receives human-readable console output. Defaults to stdout.
	Out io.Writer

	// LogFile, if set, additionally receives JSON lines with rotation.
	LogFile string

	// NoColor disables ANSI colors on the console writer.
	NoColor bool
}

// New creates a logger from opts.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	l := &Logger{noColor: opts.NoColor}
	if opts.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAge:     constants.LogMaxAgeDays,
			Compress:   true,
		}
	}
	l.build(out)
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return New(Options{})
}

// NewNop creates a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

func (l *Logger) build(out io.Writer) {
	l.output = out
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    l.noColor,
	}

	var w io.Writer = console
	if l.file != nil {
		w = zerolog.MultiLevelWriter(console, l.file)
	}

	l.zlog = zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// FileOnly returns a logger that writes to l's log file but not the console.
// It shares the file with l; close l, not the returned logger.
func (l *Logger) FileOnly() *Logger {
	if l.file == nil {
		return NewNop()
	}
	return &Logger{
		zlog:    zerolog.New(l.file).With().Timestamp().Logger(),
		output:  io.Discard,
		noColor: l.noColor,
	}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Output returns the current console writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Close flushes and closes the log file, if one is open.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
