package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/mrt/pkg/adapters/memory"
	"github.com/aretw0/mrt/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_MasksOverrides(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	state := sampleState()
	state.Overrides = map[string]any{
		"sheets_url":      "https://script.google.com/macros/s/DEPLOYMENT/exec",
		"max_response_ms": 2000,
	}
	require.NoError(t, store.Save(ctx, state.SessionID, state))

	stored, err := underlying.Load(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, stored.Overrides["sheets_url"])
	assert.EqualValues(t, 2000, stored.Overrides["max_response_ms"])

	assert.Contains(t, state.Overrides["sheets_url"], "DEPLOYMENT", "live state untouched")
}

func TestPIIMiddleware_PassThrough(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s-1", sampleState()))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, ids)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Load(ctx, "s-1")
	assert.Error(t, err)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	state := sampleState()
	state.Overrides = map[string]any{"sheets_url": "https://example.test/exec"}
	require.NoError(t, store.Save(ctx, state.SessionID, state))

	loaded, err := store.Load(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, loaded.Overrides["sheets_url"])
	assert.Equal(t, "P-007", loaded.Identity.ParticipantID)
}
