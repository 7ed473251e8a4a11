package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/mrt/pkg/domain"
)

// JSONLSink appends every envelope as one JSON line to a file.
// Safe for concurrent use.
type JSONLSink struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// OpenJSONL opens (or creates) path for appending.
func OpenJSONL(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open results log: %w", err)
	}
	return &JSONLSink{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the file being appended to.
func (s *JSONLSink) Path() string {
	return s.path
}

// Submit implements ports.Sink.
func (s *JSONLSink) Submit(ctx context.Context, env domain.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(env); err != nil {
		return fmt.Errorf("failed to append envelope: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}
