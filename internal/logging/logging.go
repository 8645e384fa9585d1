package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogFile = "gridsync.log"
	maxLogSizeMB   = 10
	maxLogBackups  = 3
)

var (
	mu           sync.Mutex
	traceEnabled bool
	logPath      = defaultLogFile
	out          *lumberjack.Logger
)

func writer() io.Writer {
	if out == nil {
		out = newRotator(logPath)
	}
	return out
}

func newRotator(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}
}

// Error writes err to the log file.
func Error(err error) {
	if err == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	l := log.New(writer(), "", log.LstdFlags)
	l.Println(err)
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	mu.Unlock()
}

// Trace appends a structured JSON entry to the log when tracing is enabled.
func Trace(event string, payload interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !traceEnabled {
		return
	}

	entry := struct {
		Time    time.Time   `json:"time"`
		Event   string      `json:"event"`
		Payload interface{} `json:"payload,omitempty"`
	}{
		Time:    time.Now().UTC(),
		Event:   event,
		Payload: payload,
	}

	if err := json.NewEncoder(writer()).Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "trace logging failed: %v\n", err)
	}
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing. Files rotate once
// they pass maxLogSizeMB.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogFile
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogFile
		return
	}
	logPath = path
}

// Path returns the current log destination.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close flushes and releases the log file. Later writes reopen it.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	if out == nil {
		return nil
	}
	err := out.Close()
	out = nil
	return err
}
