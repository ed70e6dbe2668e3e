package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CSVSink writes one row per event: timestamp, session id, kind and the
// space-separated indices.
type CSVSink struct {
	mu     sync.Mutex
	closer io.Closer
	w      *csv.Writer
}

// NewCSVSink appends to the file at path, creating it if needed.
func NewCSVSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	return &CSVSink{closer: f, w: csv.NewWriter(f)}, nil
}

// NewCSVWriterSink writes to w. Close does not close w.
func NewCSVWriterSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Append implements Sink. Each row is flushed before returning.
func (s *CSVSink) Append(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.SessionID,
		string(e.Kind),
		strings.Join(e.Indices, " "),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("audit: write row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("audit: flush row: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	if s.closer == nil {
		return s.w.Error()
	}
	return s.closer.Close()
}
