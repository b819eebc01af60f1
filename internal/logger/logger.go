// Package logger writes structured logs to a file, since the TUI owns stdout.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultLogPath is used when Init is never called
const DefaultLogPath = "/tmp/recall-debug.log"

var (
	mu         sync.Mutex
	slogLogger *slog.Logger
	levelVar   = new(slog.LevelVar)
	logFile    *os.File
)

// SetDebug switches between debug and info level
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Init opens the log file at path. Calling it again is a no-op until Close.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if slogLogger != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logFile = f
	slogLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	slogLogger.Info("Logger initialized", "path", path)
	return nil
}

// InitWriter points the logger at w. Tests use it to capture output.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	slogLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

func ensureInit() *slog.Logger {
	if slogLogger != nil {
		return slogLogger
	}
	f, err := os.OpenFile(DefaultLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open log file %s: %v\n", DefaultLogPath, err)
		slogLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return slogLogger
	}
	logFile = f
	slogLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	return slogLogger
}

// ComponentLogger returns a logger with the component attribute pre-attached.
//
//	log := logger.ComponentLogger("storage")
//	log.Debug("Chats loaded", "count", len(chats))
func ComponentLogger(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return ensureInit().With(slog.String("component", component))
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	slogLogger = nil
}
