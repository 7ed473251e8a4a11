package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/mrt/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Sink implements ports.Sink by appending envelopes to a per-session list
// and publishing them on a channel for live consumers.
type Sink struct {
	client *backend.Client
	prefix string
}

// NewSink creates a Redis result sink.
func NewSink(client *backend.Client, prefix string) *Sink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Sink{client: client, prefix: prefix}
}

// ResultsKey is the list holding the envelopes of sessionID.
func (s *Sink) ResultsKey(sessionID string) string {
	return s.prefix + "results:" + sessionID
}

// Channel is the pub/sub channel every envelope is published on.
func (s *Sink) Channel() string {
	return s.prefix + "events"
}

// Submit implements ports.Sink.
func (s *Sink) Submit(ctx context.Context, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.ResultsKey(env.SessionID), data)
	pipe.Publish(ctx, s.Channel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to submit to redis: %w", err)
	}
	return nil
}

// Envelopes reads back everything submitted for sessionID.
func (s *Sink) Envelopes(ctx context.Context, sessionID string) ([]domain.Envelope, error) {
	raw, err := s.client.LRange(ctx, s.ResultsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	out := make([]domain.Envelope, 0, len(raw))
	for _, r := range raw {
		var env domain.Envelope
		if err := json.Unmarshal([]byte(r), &env); err != nil {
			return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
		}
		out = append(out, env)
	}
	return out, nil
}
