package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a small leveled logger shared by every package of the catalog.
// Named children share the parent's writer.
type Logger struct {
	mu     *sync.Mutex
	writer io.Writer

	Name       string
	Level      Level
	TimeFormat string
	NoColor    bool
	JSON       bool
}

// Options configures New.
type Options struct {
	Name    string
	Level   Level
	File    string // rotated by lumberjack when set
	Quiet   bool   // no terminal output
	NoColor bool
	JSON    bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func New(opts Options) *Logger {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 64),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
		})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	return &Logger{
		mu:         &sync.Mutex{},
		writer:     io.MultiWriter(writers...),
		Name:       opts.Name,
		Level:      opts.Level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    opts.NoColor || opts.Quiet || opts.File != "",
		JSON:       opts.JSON,
	}
}

// NewWriter logs to w without color. Tests use it to capture output.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		mu:         &sync.Mutex{},
		writer:     w,
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWriter(io.Discard, Error+1)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if l == nil || level < l.Level {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formatted := fmt.Sprintf(msg, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.JSON {
		e := entry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.Name,
			Message:   formatted,
		}
		b, _ := json.Marshal(e)
		fmt.Fprintf(l.writer, "%s\n", b)
		return
	}

	prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
	if l.Name != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
	}
	if l.NoColor {
		fmt.Fprintf(l.writer, "%s %s\n", prefix, formatted)
	} else {
		fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", color(level), prefix, formatted)
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(Debug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(Info, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(Warn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(Error, msg, args...) }

// Named returns a child logger whose name is appended to the parent's.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	full := name
	if l.Name != "" {
		full = l.Name + "/" + name
	}
	return &Logger{
		mu:         l.mu,
		writer:     l.writer,
		Name:       full,
		Level:      l.Level,
		TimeFormat: l.TimeFormat,
		NoColor:    l.NoColor,
		JSON:       l.JSON,
	}
}
