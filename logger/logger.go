package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agnosto/dm-archiver/config"
	"github.com/rs/zerolog"
)

const (
	maxLogSize    = 5 * 1024 * 1024 // 5MB
	maxLogBackups = 5
)

// Logger is the process-wide logger. It writes to stderr until InitLogger is called.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger()

func InitLogger(cfg *config.Config) error {
	logDir := cfg.Options.LogDir
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := newRotatingFile(filepath.Join(logDir, "dm-archiver.log"))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Options.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(level).
		With().Timestamp().Logger()

	return nil
}

// Discard silences the logger, mainly for tests and the TUI.
func Discard() {
	Logger = zerolog.Nop()
}

// SetOutput replaces the logger with a JSON logger writing to w.
func SetOutput(w io.Writer) {
	Logger = zerolog.New(w).With().Timestamp().Logger()
}

// rotatingFile keeps the current log under maxLogSize and up to maxLogBackups
// numbered backups next to it.
type rotatingFile struct {
	mu   sync.Mutex
	path string
	file *os.File
	size int64
}

func newRotatingFile(path string) (*rotatingFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &rotatingFile{path: path, file: file, size: info.Size()}, nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size+int64(len(p)) > maxLogSize {
		if err := r.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}

	for i := maxLogBackups - 1; i > 0; i-- {
		oldFile := fmt.Sprintf("%s.%d", r.path, i)
		newFile := fmt.Sprintf("%s.%d", r.path, i+1)
		os.Rename(oldFile, newFile)
	}
	os.Rename(r.path, r.path+".1")

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	r.file = file
	r.size = 0
	return nil
}
