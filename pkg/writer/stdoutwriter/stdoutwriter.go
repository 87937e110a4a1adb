// Package stdoutwriter is the simplest chanlog.Writer: print to the console.
// Grounded on the stdout sink — Write formats and prints, Writee names the
// stream rather than a file path or URL.
package stdoutwriter

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Writer writes every record to os.Stdout through a zerolog.ConsoleWriter,
// one event per write. mu is unnecessary for the logger itself (zerolog is
// safe for concurrent use) but keeps line and event emission atomic together.
type Writer struct {
	mu     sync.Mutex
	logger zerolog.Logger
}

// New returns a Writer bound to os.Stdout.
func New() *Writer {
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return &Writer{logger: zerolog.New(console).With().Timestamp().Logger()}
}

// Write prints data (already formatted by the caller into a string or
// []byte; anything else is rendered with fmt) as a console log event.
func (w *Writer) Write(_ context.Context, format string, data any) ([]byte, error) {
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
	w.logger.Info().Str("format", format).Msg(string(line))
	return line, nil
}

// Writee identifies the stream written to.
func (w *Writer) Writee() any { return "stdout" }
