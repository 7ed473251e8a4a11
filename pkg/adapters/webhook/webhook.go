// Package webhook posts result envelopes to a remote sheet endpoint, such as
// a spreadsheet web app that appends each JSON body as a row.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
)

// ErrUnexpectedStatus is returned when the endpoint answers outside 2xx.
var ErrUnexpectedStatus = errors.New("unexpected webhook status")

// Sink implements ports.Sink with one POST per envelope.
type Sink struct {
	url     string
	client  *http.Client
	headers http.Header
}

// Option configures the Sink.
type Option func(*Sink)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sink) {
		s.client = c
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(s *Sink) {
		s.headers.Add(key, value)
	}
}

// New creates a sink posting to url. An empty url or the sample placeholder
// leaves the sink unconfigured: Submit then succeeds without sending anything.
func New(url string, opts ...Option) *Sink {
	s := &Sink{
		url:     strings.TrimSpace(url),
		client:  http.DefaultClient,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether Submit actually sends.
func (s *Sink) Configured() bool {
	return s.url != "" && !strings.Contains(s.url, config.SheetsPlaceholder)
}

// Submit implements ports.Sink. The body is the flat row form of env.
func (s *Sink) Submit(ctx context.Context, env domain.Envelope) error {
	if !s.Configured() {
		return nil
	}

	body, err := json.Marshal(env.Flatten())
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range s.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
