package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"splitit/pkg/config"
	"splitit/pkg/logger"
)

// Config holds configuration parameters for the audit logger.
type Config struct {
	Enabled     bool
	Backend     string // stdout or file
	FilePath    string
	MaxSize     int // MB before rotation
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
	BufferSize  int
	FlushPeriod time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		FilePath:    "audit.log",
		MaxSize:     100,
		MaxAge:      30,
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// FromConfig builds a Config from the audit section.
func FromConfig(cfg *config.AuditConfig) *Config {
	return &Config{
		Enabled:     cfg.Enabled,
		Backend:     cfg.Backend,
		FilePath:    cfg.FilePath,
		MaxSize:     cfg.MaxSize,
		MaxBackups:  cfg.MaxBackups,
		MaxAge:      cfg.MaxAge,
		Compress:    cfg.Compress,
		BufferSize:  cfg.BufferSize,
		FlushPeriod: cfg.FlushPeriod,
	}
}

// New creates the Logger selected by cfg. A nil cfg means DefaultConfig,
// a disabled one gives a NoopLogger.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if !cfg.Enabled {
		return NoopLogger{}, nil
	}

	switch cfg.Backend {
	case "file":
		return NewFileLogger(cfg)
	case "stdout", "":
		return NewWriterLogger(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// WriterLogger writes each entry synchronously as one JSON line.
type WriterLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterLogger creates a WriterLogger over w.
func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{w: w}
}

// Log marshals the entry and writes it with a trailing newline.
func (l *WriterLogger) Log(_ context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.w.Write(append(data, '\n'))
	return err
}

// Close does nothing; the writer belongs to the caller.
func (l *WriterLogger) Close() error {
	return nil
}

// FileLogger writes entries to a rotating file. Entries go through a
// buffered channel and are flushed periodically.
type FileLogger struct {
	out    io.WriteCloser
	writer *bufio.Writer
	mu     sync.Mutex
	buffer chan *Entry
	done   chan struct{}
	wg     sync.WaitGroup
	period time.Duration
}

// NewFileLogger opens the rotating file and starts the background writer.
func NewFileLogger(cfg *Config) (*FileLogger, error) {
	path := cfg.FilePath
	if path == "" {
		path = "audit.log"
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return newFileLogger(out, cfg), nil
}

func newFileLogger(out io.WriteCloser, cfg *Config) *FileLogger {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	period := cfg.FlushPeriod
	if period <= 0 {
		period = 5 * time.Second
	}

	l := &FileLogger{
		out:    out,
		writer: bufio.NewWriter(out),
		buffer: make(chan *Entry, bufferSize),
		done:   make(chan struct{}),
		period: period,
	}

	l.wg.Add(1)
	go l.processLoop()

	return l
}

// Log queues the entry. A full buffer falls back to a synchronous write.
func (l *FileLogger) Log(_ context.Context, entry *Entry) error {
	select {
	case l.buffer <- entry:
		return nil
	default:
		return l.writeEntry(entry)
	}
}

// Close stops the background writer, drains the queue and closes the file.
func (l *FileLogger) Close() error {
	close(l.done)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		select {
		case entry := <-l.buffer:
			if err := l.writeEntryUnsafe(entry); err != nil {
				logger.Log.Warn("Failed to write audit entry during shutdown", "error", err)
			}
		default:
			if err := l.writer.Flush(); err != nil {
				logger.Log.Warn("Failed to flush audit writer", "error", err)
			}
			return l.out.Close()
		}
	}
}

func (l *FileLogger) processLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case entry := <-l.buffer:
			if err := l.writeEntry(entry); err != nil {
				logger.Log.Warn("Failed to write audit entry", "error", err)
			}
		case <-ticker.C:
			l.flush()
		}
	}
}

func (l *FileLogger) writeEntry(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeEntryUnsafe(entry)
}

// writeEntryUnsafe expects l.mu to be held.
func (l *FileLogger) writeEntryUnsafe(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = l.writer.Write(append(data, '\n'))
	return err
}

func (l *FileLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush audit writer", "error", err)
	}
}

// NoopLogger discards every entry.
type NoopLogger struct{}

func (NoopLogger) Log(context.Context, *Entry) error { return nil }

func (NoopLogger) Close() error { return nil }
