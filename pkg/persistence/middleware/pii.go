package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
)

// Masked replaces redacted override values.
const Masked = "***"

// DefaultRedactPatterns match override keys that carry credentials,
// such as a web app URL with an embedded deployment token.
var DefaultRedactPatterns = []string{`(?i)url$`, `(?i)token`, `(?i)secret`}

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks the values of session overrides whose keys match
// one of the patterns before they reach the store. The live state is not modified.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	if !m.sensitive(state.Overrides) {
		return m.next.Save(ctx, sessionID, state)
	}
	cloned := *state
	cloned.Overrides = deepCopyMap(state.Overrides)
	maskMap(cloned.Overrides, m.patterns)
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) sensitive(overrides map[string]any) bool {
	for k, v := range overrides {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				return true
			}
		}
		if sub, ok := v.(map[string]any); ok && m.sensitive(sub) {
			return true
		}
	}
	return false
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Masked
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
