// Package identity provides the IdentifierProvider implementations used to
// obtain the participant identifier a session is seeded from.
package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/google/uuid"
)

// Query parameter names read by FromQuery.
const (
	ParamParticipant = "pid"
	ParamCode        = "code"
)

// Static always returns the same identity.
type Static domain.Identity

// Identify implements ports.IdentifierProvider.
func (s Static) Identify(ctx context.Context) (domain.Identity, error) {
	return Normalize(domain.Identity(s)), nil
}

// Normalize trims identifiers and upper-cases the session code.
func Normalize(id domain.Identity) domain.Identity {
	id.ParticipantID = strings.TrimSpace(id.ParticipantID)
	id.SessionCode = strings.ToUpper(strings.TrimSpace(id.SessionCode))
	return id
}

// FromQuery reads pid and code from URL query values.
func FromQuery(values url.Values) domain.Identity {
	return Normalize(domain.Identity{
		ParticipantID: values.Get(ParamParticipant),
		SessionCode:   values.Get(ParamCode),
	})
}

// Query identifies participants from a URL such as "?pid=P017&code=abc".
type Query struct {
	Values url.Values
}

// NewQuery parses a raw query string or full URL.
func NewQuery(raw string) (*Query, error) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid identity query: %w", err)
	}
	return &Query{Values: values}, nil
}

// Identify implements ports.IdentifierProvider.
func (q *Query) Identify(ctx context.Context) (domain.Identity, error) {
	return FromQuery(q.Values), nil
}

// Generated wraps another provider and fills in a fallback seed key when it
// yields no identifier.
type Generated struct {
	Next  ports.IdentifierProvider
	Clock func() time.Time
}

// NewGenerated creates a provider that falls back to a clock and uuid derived key.
// A nil next provider always generates.
func NewGenerated(next ports.IdentifierProvider) *Generated {
	return &Generated{Next: next, Clock: time.Now}
}

// Identify implements ports.IdentifierProvider.
func (g *Generated) Identify(ctx context.Context) (domain.Identity, error) {
	var id domain.Identity
	if g.Next != nil {
		var err error
		if id, err = g.Next.Identify(ctx); err != nil {
			return domain.Identity{}, err
		}
	}
	if id.SeedKey() == "" {
		id.Fallback = FallbackKey(g.Clock())
	}
	return id, nil
}

// FallbackKey derives a unique seed key from the current time and a uuid.
func FallbackKey(now time.Time) string {
	return fmt.Sprintf("anon-%s-%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}
