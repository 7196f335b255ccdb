// Package logging sets up the application logger: every event goes to a
// timestamped file, INFO and above also go to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const fileTimeLayout = "20060102_150405"

type Options struct {
	Dir     string
	Level   string    // minimum level for the file, default debug
	Console io.Writer // defaults to os.Stderr
	Now     func() time.Time
}

// Logger owns the log file and the console gate.
type Logger struct {
	zerolog.Logger
	file    *os.File
	console *gate
}

// Setup creates Dir if needed and opens rorichat_<timestamp>.log inside it.
func Setup(opts Options) (*Logger, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("log directory not set")
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	fileLevel := zerolog.DebugLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		fileLevel = lvl
	}

	path := filepath.Join(opts.Dir, fmt.Sprintf("rorichat_%s.log", now().Format(fileTimeLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	g := &gate{w: console}
	consoleLevel := zerolog.InfoLevel
	if fileLevel > consoleLevel {
		consoleLevel = fileLevel
	}
	writer := zerolog.MultiLevelWriter(
		&zerolog.FilteredLevelWriter{Writer: zerolog.LevelWriterAdapter{Writer: f}, Level: fileLevel},
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: g, NoColor: true, TimeFormat: time.TimeOnly}},
			Level:  consoleLevel,
		},
	)

	logger := zerolog.New(writer).Level(fileLevel).With().Timestamp().Logger()
	return &Logger{Logger: logger, file: f, console: g}, nil
}

// Path is the log file location.
func (l *Logger) Path() string {
	return l.file.Name()
}

// MuteConsole stops console output, e.g. while a full-screen UI owns the terminal.
func (l *Logger) MuteConsole() {
	l.console.muted.Store(true)
}

func (l *Logger) UnmuteConsole() {
	l.console.muted.Store(false)
}

func (l *Logger) Close() error {
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

type gate struct {
	w     io.Writer
	muted atomic.Bool
}

func (g *gate) Write(p []byte) (int, error) {
	if g.muted.Load() {
		return len(p), nil
	}
	return g.w.Write(p)
}
