// Package filewriter appends records to a local file. Grounded on the file
// sink's open-append-close lifecycle, but backed by lumberjack so long-lived
// channels don't grow one file without bound — the rotation the original
// sink never implemented.
package filewriter

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors lumberjack's rotation knobs.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Writer appends formatted records, one per line, to a rotating file.
type Writer struct {
	path string
	mu   sync.Mutex
	file *lumberjack.Logger
}

// New configures a rotating writer for cfg.Path. It opens nothing itself:
// the file is opened for append (created if necessary) on the first Write.
func New(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("filewriter: path must be non-empty")
	}
	return &Writer{
		path: cfg.Path,
		file: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}, nil
}

// Write appends data followed by a newline.
func (w *Writer) Write(_ context.Context, _ string, data any) ([]byte, error) {
	var line []byte
	switch v := data.(type) {
	case []byte:
		line = v
	case string:
		line = []byte(v)
	default:
		line = []byte(fmt.Sprint(v))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(line); err != nil {
		return nil, fmt.Errorf("filewriter: write: %w", err)
	}
	if _, err := w.file.Write([]byte("\n")); err != nil {
		return nil, fmt.Errorf("filewriter: write newline: %w", err)
	}
	return line, nil
}

// Writee returns the configured file path.
func (w *Writer) Writee() any { return w.path }

// Close closes the underlying file. It does not rotate it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
